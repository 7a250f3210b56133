package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
)

// ReconcileReport summarizes one phone index repair pass.
type ReconcileReport struct {
	UsersScanned   int
	IndexesScanned int
	Restored       int
	Removed        int
}

// PhoneIndexReconciler repairs drift between user records and the
// user:byphone index: missing entries are restored, entries pointing at a
// missing user or at a user with another phone number are removed.
type PhoneIndexReconciler struct {
	kv *KVStore
}

func NewPhoneIndexReconciler(kv *KVStore) *PhoneIndexReconciler {
	return &PhoneIndexReconciler{kv: kv}
}

func (r *PhoneIndexReconciler) Run(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	err := r.kv.ScanKeys(ctx, UserKeyPrefix+"*", func(key string) error {
		if strings.HasPrefix(key, PhoneIndexKeyPrefix) {
			return nil
		}
		report.UsersScanned++

		u, ok := r.readUser(ctx, key)
		if !ok || u.Phone == "" {
			return nil
		}
		if u.UserID == "" {
			u.UserID = strings.TrimPrefix(key, UserKeyPrefix)
		}

		idx := r.kv.Get(ctx, phoneIndexKey(u.Phone))
		switch idx.Status {
		case Unavailable:
			return idx.Err
		case Miss:
			if err := r.kv.Set(ctx, phoneIndexKey(u.Phone), u.UserID, 0); err != nil {
				return err
			}
			report.Restored++
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	err = r.kv.ScanKeys(ctx, PhoneIndexKeyPrefix+"*", func(key string) error {
		report.IndexesScanned++
		phone := strings.TrimPrefix(key, PhoneIndexKeyPrefix)

		idx := r.kv.Get(ctx, key)
		switch idx.Status {
		case Unavailable:
			return idx.Err
		case Miss:
			return nil
		}

		owner := r.kv.Get(ctx, userKey(idx.Value))
		if owner.Status == Unavailable {
			return owner.Err
		}
		if owner.Status == Hit {
			var u models.User
			if json.Unmarshal([]byte(owner.Value), &u) == nil && u.Phone == phone {
				return nil
			}
		}

		if err := r.kv.Delete(ctx, key); err != nil {
			return err
		}
		report.Removed++
		return nil
	})
	return report, err
}

func (r *PhoneIndexReconciler) readUser(ctx context.Context, key string) (*models.User, bool) {
	res := r.kv.Get(ctx, key)
	if res.Status != Hit {
		return nil, false
	}
	var u models.User
	if err := json.Unmarshal([]byte(res.Value), &u); err != nil {
		log.Printf("reconcile: skipping unreadable record %s: %v", key, err)
		return nil, false
	}
	return &u, true
}

package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/weatherlist-backend/internal/models"
	"github.com/AnshRaj112/weatherlist-backend/pkg/utils"
)

const (
	// UserKeyPrefix is the Redis key prefix for account records
	UserKeyPrefix = "user:"
	// PhoneIndexKeyPrefix is the Redis key prefix for the phone -> userId index
	PhoneIndexKeyPrefix = "user:byphone:"
)

// Client-facing identity messages.
const (
	MsgAllFieldsRequired  = "모든 필드를 입력하세요"
	MsgUserIDRequired     = "아이디를 입력하세요"
	MsgInvalidUserID      = "아이디에 ':' 문자는 사용할 수 없습니다"
	MsgLoginFieldsMissing = "아이디와 비밀번호를 입력하세요"
	MsgFindIDFields       = "이름과 전화번호를 입력하세요"
	MsgUserIDTaken        = "이미 사용 중인 아이디입니다"
	MsgPhoneTaken         = "이미 등록된 전화번호입니다"
	MsgUserIDAvailable    = "사용 가능한 아이디입니다"
	MsgUserNotFound       = "존재하지 않는 아이디입니다"
	MsgWrongPassword      = "비밀번호가 일치하지 않습니다"
	MsgAccountNotFound    = "일치하는 회원 정보가 없습니다"
	MsgNewPasswordMissing = "새 비밀번호를 입력하세요"
	MsgInvalidResetToken  = "유효하지 않거나 만료된 재설정 토큰입니다"
	MsgServerError        = "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
)

// RegisterInput is the payload of IdentityService.Register.
type RegisterInput struct {
	UserID   string
	Password string
	Name     string
	Phone    string
}

// ResetTicket is what a successful FindPassword hands back instead of the
// password itself.
type ResetTicket struct {
	Token     string
	ExpiresIn time.Duration
}

// IdentityService implements registration, login and account recovery on top
// of the key-value store. Every read that reports the store as unavailable
// fails closed with KindStoreUnavailable, except Logout.
type IdentityService struct {
	kv       *KVStore
	sessions *SessionStore
	resets   *ResetTokens
	now      func() time.Time
}

func NewIdentityService(kv *KVStore, sessions *SessionStore, resets *ResetTokens) *IdentityService {
	return &IdentityService{kv: kv, sessions: sessions, resets: resets, now: time.Now}
}

func userKey(userID string) string { return UserKeyPrefix + userID }
func phoneIndexKey(phone string) string { return PhoneIndexKeyPrefix + phone }

// validUserID rejects ids that would escape the user: key namespace.
func validUserID(userID string) bool {
	return userID != "" && !strings.Contains(userID, ":")
}

// loadUser returns the record, nil on a miss, or a StoreUnavailable error.
func (s *IdentityService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	if !validUserID(userID) {
		return nil, nil
	}
	res := s.kv.Get(ctx, userKey(userID))
	switch res.Status {
	case Unavailable:
		return nil, storeError(MsgServerError, res.Err)
	case Miss:
		return nil, nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(res.Value), &u); err != nil {
		return nil, &Error{Kind: KindUnexpected, Message: MsgServerError, Err: fmt.Errorf("decode user %s: %w", userID, err)}
	}
	if u.UserID == "" {
		u.UserID = userID
	}
	return &u, nil
}

func (s *IdentityService) saveUser(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, userKey(u.UserID), string(data), 0)
}

// Register creates the account record and the phone index in one
// transaction. Both the userId and the phone must be unused.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) error {
	if in.UserID == "" || in.Password == "" || in.Name == "" || in.Phone == "" {
		return validationError(MsgAllFieldsRequired)
	}
	if !validUserID(in.UserID) {
		return validationError(MsgInvalidUserID)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: MsgServerError, Err: err}
	}

	record, err := json.Marshal(models.User{
		UserID:       in.UserID,
		PasswordHash: hash,
		Name:         in.Name,
		Phone:        in.Phone,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: MsgServerError, Err: err}
	}

	// the phone index holds one id per phone, so a phone already in use is
	// rejected instead of overwritten
	conflict, err := s.kv.SetAllIfAbsent(ctx,
		[]string{userKey(in.UserID), phoneIndexKey(in.Phone)},
		[]Entry{
			{Key: userKey(in.UserID), Value: string(record)},
			{Key: phoneIndexKey(in.Phone), Value: in.UserID},
		})
	switch {
	case err != nil:
		return storeError(MsgServerError, err)
	case conflict == phoneIndexKey(in.Phone):
		return &Error{Kind: KindDuplicateUser, Message: MsgPhoneTaken}
	case conflict != "":
		return &Error{Kind: KindDuplicateUser, Message: MsgUserIDTaken}
	}
	return nil
}

// CheckIDAvailable reports whether userID is still free.
func (s *IdentityService) CheckIDAvailable(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, validationError(MsgUserIDRequired)
	}
	if !validUserID(userID) {
		return false, validationError(MsgInvalidUserID)
	}
	res := s.kv.Exists(ctx, userKey(userID))
	if res.Status == Unavailable {
		return false, storeError(MsgServerError, res.Err)
	}
	return res.Status == Miss, nil
}

// Login verifies the credential and returns a new session token.
func (s *IdentityService) Login(ctx context.Context, userID, password string) (string, error) {
	if userID == "" || password == "" {
		return "", validationError(MsgLoginFieldsMissing)
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", notFoundError(MsgUserNotFound)
	}

	ok, err := s.checkPassword(ctx, u, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &Error{Kind: KindInvalidCredential, Message: MsgWrongPassword}
	}

	token, err := s.sessions.Create(ctx, u.UserID)
	if err != nil {
		return "", storeError(MsgServerError, err)
	}
	return token, nil
}

// checkPassword verifies password against u, upgrading legacy plaintext
// records to a hash after a successful match.
func (s *IdentityService) checkPassword(ctx context.Context, u *models.User, password string) (bool, error) {
	if u.PasswordHash != "" {
		ok, err := utils.VerifyPassword(password, u.PasswordHash)
		if err != nil {
			return false, &Error{Kind: KindUnexpected, Message: MsgServerError, Err: err}
		}
		return ok, nil
	}

	if u.LegacyPassword == "" || subtle.ConstantTimeCompare([]byte(u.LegacyPassword), []byte(password)) != 1 {
		return false, nil
	}

	hash, err := utils.HashPassword(password)
	if err == nil {
		u.PasswordHash = hash
		u.LegacyPassword = ""
		// a failed upgrade is retried on the next login
		_ = s.saveUser(ctx, u)
	}
	return true, nil
}

// Logout removes the session. It never fails: an unknown token or an
// unreachable store still counts as logged out.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	_ = s.sessions.Invalidate(ctx, sessionID)
	return nil
}

// FindID resolves an account id from name and phone. Every failure returns
// the same message so callers cannot tell which part did not match.
func (s *IdentityService) FindID(ctx context.Context, name, phone string) (string, error) {
	if name == "" || phone == "" {
		return "", validationError(MsgFindIDFields)
	}

	idx := s.kv.Get(ctx, phoneIndexKey(phone))
	switch idx.Status {
	case Unavailable:
		return "", storeError(MsgServerError, idx.Err)
	case Miss:
		return "", notFoundError(MsgAccountNotFound)
	}

	u, err := s.loadUser(ctx, idx.Value)
	if err != nil {
		return "", err
	}
	if u == nil || u.Name != name || u.Phone != phone {
		return "", notFoundError(MsgAccountNotFound)
	}
	return u.UserID, nil
}

// FindPassword verifies the account details and issues a reset token.
func (s *IdentityService) FindPassword(ctx context.Context, userID, name, phone string) (ResetTicket, error) {
	if userID == "" || name == "" || phone == "" {
		return ResetTicket{}, validationError(MsgAllFieldsRequired)
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return ResetTicket{}, err
	}
	if u == nil || u.Name != name || u.Phone != phone {
		return ResetTicket{}, notFoundError(MsgAccountNotFound)
	}

	token, err := s.resets.Issue(ctx, u.UserID)
	if err != nil {
		return ResetTicket{}, storeError(MsgServerError, err)
	}
	return ResetTicket{Token: token, ExpiresIn: s.resets.TTL()}, nil
}

// ResetPassword redeems a reset token, stores the new password and ends all
// sessions of the account.
func (s *IdentityService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return &Error{Kind: KindInvalidCredential, Message: MsgInvalidResetToken}
	}
	if newPassword == "" {
		return validationError(MsgNewPasswordMissing)
	}

	userID, err := s.resets.Consume(ctx, token)
	switch {
	case errors.Is(err, ErrInvalidResetToken), errors.Is(err, ErrResetTokenUsed):
		return &Error{Kind: KindInvalidCredential, Message: MsgInvalidResetToken, Err: err}
	case err != nil:
		return storeError(MsgServerError, err)
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return notFoundError(MsgAccountNotFound)
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return &Error{Kind: KindUnexpected, Message: MsgServerError, Err: err}
	}
	u.PasswordHash = hash
	u.LegacyPassword = ""
	if err := s.saveUser(ctx, u); err != nil {
		return storeError(MsgServerError, err)
	}

	_ = s.sessions.InvalidateUser(ctx, userID)
	return nil
}

// club_auth.go
//
// Grant pipeline and club portal data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of grants-portal.
// grants-portal is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// grants-portal is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with grants-portal.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/localnerve/grants-portal/internal/models"
	"github.com/localnerve/grants-portal/internal/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ClubSessionCookie names the club session cookie.
const ClubSessionCookie = "club_session"

const clubSessionPrefix = "club_session:"

// ErrSessionNotFound is returned for unknown or expired club sessions.
var ErrSessionNotFound = errors.New("club session not found")

// ClubSession is the value stored per club session token.
type ClubSession struct {
	ClubID    string    `json:"clubId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClubSessions keeps club sessions in redis with a fixed lifetime.
type ClubSessions struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewClubSessions creates a session store.
func NewClubSessions(rdb redis.Cmdable, ttl time.Duration) *ClubSessions {
	return &ClubSessions{rdb: rdb, ttl: ttl}
}

// TTL is the session lifetime.
func (s *ClubSessions) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for clubID and returns its token.
func (s *ClubSessions) Create(ctx context.Context, clubID string) (string, error) {
	token := uuid.NewString()
	b, err := json.Marshal(ClubSession{ClubID: clubID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, clubSessionPrefix+token, b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store club session: %w", err)
	}
	return token, nil
}

// Resolve returns the session for token.
func (s *ClubSessions) Resolve(ctx context.Context, token string) (*ClubSession, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	b, err := s.rdb.Get(ctx, clubSessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read club session: %w", err)
	}
	var sess ClubSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decode club session: %w", err)
	}
	return &sess, nil
}

// Delete ends a session. Unknown tokens are ignored.
func (s *ClubSessions) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.rdb.Del(ctx, clubSessionPrefix+token).Err()
}

// Passcode derives a club passcode from its ABN and code version. Bumping the
// version revokes every passcode issued before.
func Passcode(secret, abn string, codeVersion int) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s-%d", abn, codeVersion)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil))[:8])
}

// ClubCredentials is a club login request: ABN and passcode, or an access code.
type ClubCredentials struct {
	ABN      string `json:"abn"`
	Passcode string `json:"passcode"`
	Code     string `json:"code"`
}

// LoginResult is returned on a successful club login.
type LoginResult struct {
	Success  bool   `json:"success"`
	ClubID   string `json:"clubId"`
	ClubName string `json:"clubName"`
	Redirect string `json:"redirect"`
	Token    string `json:"-"`
}

const clubAuthErrorType = "club.authorization"

func authError(code int, message string) error {
	return types.NewError(code, clubAuthErrorType, "%s", message)
}

// ClubLogin checks club credentials and opens a session.
func ClubLogin(ctx context.Context, db *gorm.DB, sessions *ClubSessions, secret string, creds ClubCredentials) (*LoginResult, error) {
	method := "passcode"
	if strings.TrimSpace(creds.Code) != "" {
		method = "code"
	}
	club, err := authenticateClub(db, secret, creds)
	if err != nil {
		metrics.ClubLogins.WithLabelValues(method, "failure").Inc()
		return nil, err
	}

	token, err := sessions.Create(ctx, club.ID)
	if err != nil {
		metrics.ClubLogins.WithLabelValues(method, "error").Inc()
		return nil, err
	}
	metrics.ClubLogins.WithLabelValues(method, "success").Inc()

	redirect := "/club-dashboard"
	if strings.TrimSpace(club.About) == "" {
		redirect = "/onboarding"
	}
	return &LoginResult{
		Success:  true,
		ClubID:   club.ID,
		ClubName: club.DisplayName(),
		Redirect: redirect,
		Token:    token,
	}, nil
}

func authenticateClub(db *gorm.DB, secret string, creds ClubCredentials) (*models.Club, error) {
	var club models.Club
	switch {
	case strings.TrimSpace(creds.Code) != "":
		code := strings.ToUpper(strings.TrimSpace(creds.Code))
		err := silent(db).Where("access_code = ?", code).First(&club).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authError(fiber.StatusUnauthorized, "Invalid or expired access code.")
		}
		if err != nil {
			return nil, storeErr(err)
		}

	case creds.ABN != "" && creds.Passcode != "":
		abn, ok := NormalizeABN(creds.ABN)
		if !ok {
			return nil, authError(fiber.StatusBadRequest, "Invalid ABN format.")
		}
		err := silent(db).Where("abn = ?", abn).First(&club).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authError(fiber.StatusUnauthorized, "No club found with this ABN.")
		}
		if err != nil {
			return nil, storeErr(err)
		}
		want := Passcode(secret, club.ABN, club.CodeVersion)
		got := strings.ToUpper(strings.TrimSpace(creds.Passcode))
		if !hmac.Equal([]byte(want), []byte(got)) {
			return nil, authError(fiber.StatusUnauthorized, "Invalid passcode.")
		}

	default:
		return nil, authError(fiber.StatusBadRequest, "Missing ABN/passcode or code.")
	}

	if !club.SubscriptionActive {
		return nil, authError(fiber.StatusUnauthorized, "Club subscription is inactive.")
	}
	return &club, nil
}

// ResolveClub maps a session token to its club. Sessions of deleted or
// deactivated clubs are refused.
func ResolveClub(ctx context.Context, db *gorm.DB, sessions *ClubSessions, token string) (*models.Club, error) {
	sess, err := sessions.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	var club models.Club
	err = silent(db).WithContext(ctx).First(&club, "id = ?", sess.ClubID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	if !club.SubscriptionActive {
		return nil, ErrSessionNotFound
	}
	return &club, nil
}

// RotateClubCode bumps a club's code version and returns the new passcode.
func RotateClubCode(db *gorm.DB, secret, clubID string) (string, error) {
	var club models.Club
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := silent(tx).First(&club, "id = ?", clubID).Error; err != nil {
			return err
		}
		club.CodeVersion++
		return tx.Model(&club).Update("code_version", club.CodeVersion).Error
	})
	if err != nil {
		return "", storeErr(err)
	}
	return Passcode(secret, club.ABN, club.CodeVersion), nil
}

// Package auth issues short-lived room-scoped access tokens, handing
// every caller a fresh random identity.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const tokenLifetime = time.Hour

var colors = []string{
	"#f87171",
	"#fb923c",
	"#facc15",
	"#5fda15",
	"#4ade80",
	"#34ead2",
	"#22d3ee",
	"#60a5fa",
	"#c084fc",
	"#ff7dc0",
}

var names = []string{
	"Charlie Layne",
	"Mislav Abha",
	"Tatum Paolo",
	"Anjali Wanda",
	"Jody Hekla",
	"Emil Joyce",
	"Jory Quispe",
	"Quinn Elton",
}

const avatarCount = 10

type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Picture string `json:"picture"`
}

// Claims is the signed payload embedded in a token.
type Claims struct {
	Room     string   `json:"room"`
	Identity Identity `json:"identity"`
	Expires  int64    `json:"expires"` // unix seconds
}

func randomIdentity() Identity {
	return Identity{
		ID:      uuid.NewString(),
		Name:    names[rand.Intn(len(names))],
		Color:   colors[rand.Intn(len(colors))],
		Picture: fmt.Sprintf("/assets/avatars/%d.png", rand.Intn(avatarCount)),
	}
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Token signs claims for the given room.
func Token(secret, room string, id Identity, now time.Time) string {
	claims := Claims{Room: room, Identity: id, Expires: now.Add(tokenLifetime).Unix()}
	payload, _ := json.Marshal(claims)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + sign(secret, payload)
}

// Verify checks a token's signature and expiry and returns its claims.
func Verify(secret, token string, now time.Time) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("server secret not configured")
	}
	body, mac, found := strings.Cut(token, ".")
	if !found {
		return nil, errors.New("malformed token")
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if nil != err {
		return nil, errors.New("malformed token")
	}
	if !hmac.Equal([]byte(mac), []byte(sign(secret, payload))) {
		return nil, errors.New("bad token signature")
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); nil != err {
		return nil, errors.New("malformed token")
	}
	if now.Unix() > claims.Expires {
		return nil, errors.New("token expired")
	}
	return &claims, nil
}

type authRequest struct {
	Room string `json:"room"`
}

type authResponse struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

// Handler serves POST /api/auth. It fails closed with 403 while the
// secret is unconfigured.
func Handler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if secret == "" {
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Missing PIANO_SECRET configuration",
			})
			return
		}

		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); nil != err || req.Room == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "missing room"})
			return
		}

		id := randomIdentity()
		resp := authResponse{
			Token:    Token(secret, req.Room, id, time.Now()),
			Identity: id,
		}
		if err := json.NewEncoder(w).Encode(resp); nil != err {
			log.Println("unable to write auth response:", err)
		}
	}
}

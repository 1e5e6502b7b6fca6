package planetsdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
)

// ============================================================================
// Enumerations
// ============================================================================

// MBTI is one of the sixteen Myers-Briggs types.
type MBTI string

var mbtiTypes = []MBTI{
	"ISTJ", "ISFJ", "INFJ", "INTJ",
	"ISTP", "ISFP", "INFP", "INTP",
	"ESTP", "ESFP", "ENFP", "ENTP",
	"ESTJ", "ESFJ", "ENFJ", "ENTJ",
}

// MBTITypes returns every valid MBTI value.
func MBTITypes() []MBTI { return slices.Clone(mbtiTypes) }

func (m MBTI) Valid() bool { return slices.Contains(mbtiTypes, m) }

// ParseMBTI accepts any letter case.
func ParseMBTI(s string) (MBTI, error) {
	m := MBTI(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid mbti %q", s)
	}
	return m, nil
}

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

func (g Gender) Valid() bool { return g == GenderMale || g == GenderFemale }

// ParseGender accepts "male"/"female" in any case, or "m"/"f".
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ============================================================================
// Timestamps
// ============================================================================

// Timestamp decodes the API's timestamps, which may or may not carry a zone
// offset. Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ============================================================================
// Users and authentication
// ============================================================================

type User struct {
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Role    Role     `json:"role"`
	MBTI    MBTI     `json:"mbti"`
	Gender  Gender   `json:"gender"`
	Hobbies []string `json:"hobbies"`
}

type SignUpRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Name     string   `json:"name"`
	MBTI     MBTI     `json:"mbti"`
	Gender   Gender   `json:"gender"`
	Hobbies  []string `json:"hobbies"`
}

// Validate checks the fields the sign-up form requires before sending.
func (r SignUpRequest) Validate() error {
	var errs []error
	if _, err := mail.ParseAddress(r.Email); err != nil {
		errs = append(errs, fmt.Errorf("email: %q is not a valid address", r.Email))
	}
	if r.Password == "" {
		errs = append(errs, errors.New("password: required"))
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("name: required"))
	}
	if !r.MBTI.Valid() {
		errs = append(errs, fmt.Errorf("mbti: %q is not a valid type", r.MBTI))
	}
	if !r.Gender.Valid() {
		errs = append(errs, fmt.Errorf("gender: %q must be Male or Female", r.Gender))
	}
	if len(r.Hobbies) == 0 {
		errs = append(errs, errors.New("hobbies: at least one required"))
	}
	return errors.Join(errs...)
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type SignInResponse struct {
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt Timestamp `json:"accessTokenExpiresAt"`
	User                 User      `json:"user"`
}

// UserUpdateRequest only sends the fields that are set.
type UserUpdateRequest struct {
	Password *string  `json:"password,omitempty"`
	Name     *string  `json:"name,omitempty"`
	MBTI     *MBTI    `json:"mbti,omitempty"`
	Gender   *Gender  `json:"gender,omitempty"`
	Hobbies  []string `json:"hobbies,omitempty"`
}

// Empty reports whether the update would change nothing.
func (r UserUpdateRequest) Empty() bool {
	return r.Password == nil && r.Name == nil && r.MBTI == nil && r.Gender == nil && r.Hobbies == nil
}

func (r UserUpdateRequest) Validate() error {
	var errs []error
	if r.Empty() {
		errs = append(errs, errors.New("nothing to update"))
	}
	if r.Password != nil && *r.Password == "" {
		errs = append(errs, errors.New("password: must not be empty"))
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		errs = append(errs, errors.New("name: must not be empty"))
	}
	if r.MBTI != nil && !r.MBTI.Valid() {
		errs = append(errs, fmt.Errorf("mbti: %q is not a valid type", *r.MBTI))
	}
	if r.Gender != nil && !r.Gender.Valid() {
		errs = append(errs, fmt.Errorf("gender: %q must be Male or Female", *r.Gender))
	}
	if r.Hobbies != nil && len(r.Hobbies) == 0 {
		errs = append(errs, errors.New("hobbies: at least one required"))
	}
	return errors.Join(errs...)
}

// ============================================================================
// Quests
// ============================================================================

type EvidenceImage struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

type Quest struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Encouragement  string         `json:"encouragement"`
	IsCompleted    bool           `json:"isCompleted"`
	CompletedAt    *Timestamp     `json:"completedAt,omitempty"`
	CreatedAt      Timestamp      `json:"createdAt"`
	LastModifiedAt Timestamp      `json:"lastModifiedAt"`
	EvidenceImage  *EvidenceImage `json:"evidenceImage,omitempty"`
	Feedback       *string        `json:"feedback,omitempty"`
}

type QuestSuggestion struct {
	UUID           string    `json:"uuid"`
	Title          string    `json:"title"`
	CreatedAt      Timestamp `json:"createdAt"`
	RequesterEmail string    `json:"requesterEmail"`
}

// ============================================================================
// Tiers
// ============================================================================

type Tier struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Month           string    `json:"month"` // YYYY-MM
	Tier            string    `json:"tier"`
	ExperiencePoint int       `json:"experiencePoint"`
	CurrentExp      int       `json:"currentExp"`
	MaxExp          int       `json:"maxExp"`
	Level           int       `json:"level"`
	CreatedAt       Timestamp `json:"createdAt"`
	LastModifiedAt  Timestamp `json:"lastModifiedAt"`
}

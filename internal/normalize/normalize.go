// Package normalize maps locally stored diary records, which may use legacy
// camel-case or canonical snake-case field names, onto the canonical row.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
)

// Mode selects the required-field rule set of a sync pass.
type Mode int

const (
	// ModeManual requires id, date and emotion.
	ModeManual Mode = iota
	// ModeBackground additionally requires non-empty event and realization.
	ModeBackground
)

func (m Mode) String() string {
	if m == ModeBackground {
		return "background"
	}
	return "manual"
}

// Source field names, canonical first.
const (
	FieldID                 = "id"
	FieldDate               = "date"
	FieldEmotion            = "emotion"
	FieldEvent              = "event"
	FieldRealization        = "realization"
	FieldCreatedAt          = "created_at"
	fieldSelfEsteemCamel    = "selfEsteemScore"
	fieldSelfEsteemSnake    = "self_esteem_score"
	fieldWorthlessnessCamel = "worthlessnessScore"
	fieldWorthlessnessSnake = "worthlessness_score"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp renders t the way the device stores timestamps (UTC, milliseconds).
func Timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Eligible reports whether raw carries the fields the given mode requires.
func Eligible(raw map[string]any, mode Mode) bool {
	if raw == nil {
		return false
	}
	if ID(raw) == "" || text(raw, FieldDate) == "" || text(raw, FieldEmotion) == "" {
		return false
	}
	if mode == ModeBackground {
		return text(raw, FieldEvent) != "" && text(raw, FieldRealization) != ""
	}
	return true
}

// Entry converts raw into a canonical row owned by userID.
// Any user_id on raw is ignored.
func Entry(raw map[string]any, userID string, now time.Time) (model.DiaryRow, error) {
	id := ID(raw)
	if id == "" {
		return model.DiaryRow{}, fmt.Errorf("%w: missing %s", errs.ErrInvalidEntry, FieldID)
	}
	date := text(raw, FieldDate)
	if date == "" {
		return model.DiaryRow{}, fmt.Errorf("%w: %s missing %s", errs.ErrInvalidEntry, id, FieldDate)
	}
	emotion := text(raw, FieldEmotion)
	if emotion == "" {
		return model.DiaryRow{}, fmt.Errorf("%w: %s missing %s", errs.ErrInvalidEntry, id, FieldEmotion)
	}

	createdAt := text(raw, FieldCreatedAt)
	if createdAt == "" {
		createdAt = Timestamp(now)
	}

	urgency := text(raw, "urgency_level", "urgencyLevel")
	if !model.ValidUrgency(urgency) {
		urgency = ""
	}

	return model.DiaryRow{
		ID:                 id,
		UserID:             userID,
		Date:               date,
		Emotion:            emotion,
		Event:              text(raw, FieldEvent),
		Realization:        text(raw, FieldRealization),
		SelfEsteemScore:    model.IntPtr(Score(raw, fieldSelfEsteemCamel, fieldSelfEsteemSnake)),
		WorthlessnessScore: model.IntPtr(Score(raw, fieldWorthlessnessCamel, fieldWorthlessnessSnake)),
		AssignedCounselor:  text(raw, "assigned_counselor", "assignedCounselor"),
		UrgencyLevel:       urgency,
		IsVisibleToUser:    flag(raw, "is_visible_to_user", "isVisibleToUser"),
		CounselorName:      text(raw, "counselor_name", "counselorName"),
		CounselorMemo:      text(raw, "counselor_memo", "counselorMemo"),
		CreatedAt:          createdAt,
	}, nil
}

// ID returns the record identifier as a string, or "" when absent.
// Numeric identifiers are rendered in decimal.
func ID(raw map[string]any) string {
	switch v := raw[FieldID].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// Fields returns the values the deduplication key is built from.
func Fields(raw map[string]any) (date, emotion, event string) {
	return text(raw, FieldDate), text(raw, FieldEmotion), text(raw, FieldEvent)
}

// Score resolves a score with precedence: numeric camel, string camel,
// numeric snake, string snake, then model.DefaultScore.
func Score(raw map[string]any, camel, snake string) int {
	for _, key := range []string{camel, snake} {
		if n, ok := number(raw[key]); ok {
			return n
		}
		if s, ok := raw[key].(string); ok && s != "" {
			if n, ok := ParseInt(s); ok {
				return n
			}
		}
	}
	return model.DefaultScore
}

// ParseInt parses the leading integer of s: optional surrounding whitespace,
// an optional sign and at least one digit. Trailing characters are ignored.
func ParseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// number reports integral value of a JSON number, truncating fractions.
func number(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return truncate(f)
	case float64:
		return truncate(n)
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

// text returns the first non-empty string among keys.
func text(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// flag returns the truthiness of the first present key, false when none is.
func flag(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return truthy(v)
		}
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

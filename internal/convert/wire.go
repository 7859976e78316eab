// Package convert maps domain types to and from DiaryStore wire messages.
package convert

import (
	"fmt"
	"time"

	pb "github.com/and161185/diary-sync/internal/api/diarysyncv1"
	"github.com/and161185/diary-sync/internal/model"
)

// --- helpers ---

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toWireScore(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func fromWireScore(p *int32) *int {
	if p == nil {
		return nil
	}
	return model.IntPtr(int(*p))
}

// --- Diary rows ---

// ToWireDiary converts a domain row to its wire message.
func ToWireDiary(r model.DiaryRow) *pb.DiaryEntry {
	return &pb.DiaryEntry{
		Id:                 r.ID,
		UserId:             r.UserID,
		Date:               r.Date,
		Emotion:            r.Emotion,
		Event:              r.Event,
		Realization:        r.Realization,
		SelfEsteemScore:    toWireScore(r.SelfEsteemScore),
		WorthlessnessScore: toWireScore(r.WorthlessnessScore),
		AssignedCounselor:  r.AssignedCounselor,
		UrgencyLevel:       r.UrgencyLevel,
		IsVisibleToUser:    r.IsVisibleToUser,
		CounselorName:      r.CounselorName,
		CounselorMemo:      r.CounselorMemo,
		CreatedAt:          r.CreatedAt,
	}
}

// ToWireDiaries converts a batch of rows.
func ToWireDiaries(rs []model.DiaryRow) []*pb.DiaryEntry {
	out := make([]*pb.DiaryEntry, 0, len(rs))
	for _, r := range rs {
		out = append(out, ToWireDiary(r))
	}
	return out
}

// FromWireDiary converts a wire message to a domain row.
func FromWireDiary(in *pb.DiaryEntry) (model.DiaryRow, error) {
	if in == nil {
		return model.DiaryRow{}, fmt.Errorf("nil DiaryEntry")
	}
	if in.GetId() == "" {
		return model.DiaryRow{}, fmt.Errorf("empty id")
	}
	return model.DiaryRow{
		ID:                 in.Id,
		UserID:             in.UserId,
		Date:               in.Date,
		Emotion:            in.Emotion,
		Event:              in.Event,
		Realization:        in.Realization,
		SelfEsteemScore:    fromWireScore(in.SelfEsteemScore),
		WorthlessnessScore: fromWireScore(in.WorthlessnessScore),
		AssignedCounselor:  in.AssignedCounselor,
		UrgencyLevel:       in.UrgencyLevel,
		IsVisibleToUser:    in.IsVisibleToUser,
		CounselorName:      in.CounselorName,
		CounselorMemo:      in.CounselorMemo,
		CreatedAt:          in.CreatedAt,
	}, nil
}

// FromWireDiaries converts a batch of wire messages, failing on the first bad one.
func FromWireDiaries(in []*pb.DiaryEntry) ([]model.DiaryRow, error) {
	out := make([]model.DiaryRow, 0, len(in))
	for i, e := range in {
		r, err := FromWireDiary(e)
		if err != nil {
			return nil, fmt.Errorf("entry[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// --- Users ---

// ToWireUser converts a stored account to its wire message.
func ToWireUser(u model.User) *pb.User {
	return &pb.User{
		Id:           u.ID.String(),
		LineUsername: u.LineUsername,
		CreatedAt:    ts(u.CreatedAt),
	}
}

// FromWireUser converts a wire user into the sync identity. A nil message
// yields nil.
func FromWireUser(in *pb.User) *model.SyncUser {
	if in == nil {
		return nil
	}
	return &model.SyncUser{ID: in.GetId(), LineUsername: in.GetLineUsername()}
}

// Package diarysyncv1 defines the DiaryStore gRPC API: request and response
// messages, the JSON wire codec, the service descriptor and a client stub.
package diarysyncv1

// DiaryEntry is one diary row as it travels over the wire.
type DiaryEntry struct {
	Id                 string `json:"id"`
	UserId             string `json:"user_id"`
	Date               string `json:"date"`
	Emotion            string `json:"emotion"`
	Event              string `json:"event"`
	Realization        string `json:"realization"`
	SelfEsteemScore    *int32 `json:"self_esteem_score,omitempty"`
	WorthlessnessScore *int32 `json:"worthlessness_score,omitempty"`
	AssignedCounselor  string `json:"assigned_counselor"`
	UrgencyLevel       string `json:"urgency_level"`
	IsVisibleToUser    bool   `json:"is_visible_to_user"`
	CounselorName      string `json:"counselor_name"`
	CounselorMemo      string `json:"counselor_memo"`
	CreatedAt          string `json:"created_at"`
}

func (x *DiaryEntry) GetId() string {
	if x == nil {
		return ""
	}
	return x.Id
}

func (x *DiaryEntry) GetUserId() string {
	if x == nil {
		return ""
	}
	return x.UserId
}

// User is a remote identity.
type User struct {
	Id           string `json:"id"`
	LineUsername string `json:"line_username"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func (x *User) GetId() string {
	if x == nil {
		return ""
	}
	return x.Id
}

func (x *User) GetLineUsername() string {
	if x == nil {
		return ""
	}
	return x.LineUsername
}

type CreateOrGetUserRequest struct {
	LineUsername string `json:"line_username"`
}

func (x *CreateOrGetUserRequest) GetLineUsername() string {
	if x == nil {
		return ""
	}
	return x.LineUsername
}

type CreateOrGetUserResponse struct {
	User *User `json:"user"`
}

func (x *CreateOrGetUserResponse) GetUser() *User {
	if x == nil {
		return nil
	}
	return x.User
}

type UpsertDiariesRequest struct {
	Entries          []*DiaryEntry `json:"entries"`
	OnConflict       string        `json:"on_conflict"`
	IgnoreDuplicates bool          `json:"ignore_duplicates"`
}

func (x *UpsertDiariesRequest) GetEntries() []*DiaryEntry {
	if x == nil {
		return nil
	}
	return x.Entries
}

func (x *UpsertDiariesRequest) GetOnConflict() string {
	if x == nil {
		return ""
	}
	return x.OnConflict
}

func (x *UpsertDiariesRequest) GetIgnoreDuplicates() bool {
	if x == nil {
		return false
	}
	return x.IgnoreDuplicates
}

type UpsertDiariesResponse struct {
	Affected int64 `json:"affected"`
}

func (x *UpsertDiariesResponse) GetAffected() int64 {
	if x == nil {
		return 0
	}
	return x.Affected
}

type DeleteDiaryRequest struct {
	Id string `json:"id"`
}

func (x *DeleteDiaryRequest) GetId() string {
	if x == nil {
		return ""
	}
	return x.Id
}

type DeleteDiariesRequest struct {
	Ids []string `json:"ids"`
}

func (x *DeleteDiariesRequest) GetIds() []string {
	if x == nil {
		return nil
	}
	return x.Ids
}

// DeleteResponse reports how many rows a delete removed.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

func (x *DeleteResponse) GetDeleted() int64 {
	if x == nil {
		return 0
	}
	return x.Deleted
}

// UserScopeRequest addresses every diary row owned by one user.
type UserScopeRequest struct {
	UserId string `json:"user_id"`
}

func (x *UserScopeRequest) GetUserId() string {
	if x == nil {
		return ""
	}
	return x.UserId
}

type CountDiariesResponse struct {
	Count int64 `json:"count"`
}

func (x *CountDiariesResponse) GetCount() int64 {
	if x == nil {
		return 0
	}
	return x.Count
}

type DeleteTestDiariesRequest struct {
	UserId  string   `json:"user_id"`
	Markers []string `json:"markers"`
}

func (x *DeleteTestDiariesRequest) GetUserId() string {
	if x == nil {
		return ""
	}
	return x.UserId
}

func (x *DeleteTestDiariesRequest) GetMarkers() []string {
	if x == nil {
		return nil
	}
	return x.Markers
}

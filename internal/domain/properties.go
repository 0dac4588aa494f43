package domain

// RoomProperties is the authoritative shared property tree. Snapshots
// replace it wholesale; there is no incremental patching on the local
// side. Missing namespaces decode to empty maps, never to a crash.
type RoomProperties struct {
	Students          map[UserID]StudentRecord `json:"students"`
	Teachers          map[UserID]TeacherRecord `json:"teachers"`
	Groups            map[GroupID]GroupRecord  `json:"groups"`
	InteractOutGroups StagePlacement           `json:"interactOutGroups"`
	HandUpStates      map[UserID]HandUpState   `json:"handUpStates"`
	Processes         map[string]Process       `json:"processes"`
	Record            RecordState              `json:"record"`
}

type StudentRecord struct {
	Name     string   `json:"userName"`
	Reward   int      `json:"reward"`
	StreamID StreamID `json:"streamUuid"`
}

type TeacherRecord struct {
	Name string `json:"userName"`
}

type GroupRecord struct {
	Name    string   `json:"groupName"`
	Members []UserID `json:"members"`
}

// StagePlacement holds the two stage slots plus the out-of-group
// interaction flag. A group id appears in at most one slot.
type StagePlacement struct {
	G1       GroupID `json:"g1,omitempty"`
	G2       GroupID `json:"g2,omitempty"`
	Interact bool    `json:"interact"`
}

// HandUpReason classifies a hand-up record.
type HandUpReason int

const (
	HandUpNone HandUpReason = iota
	HandUpApply
	HandUpAccept
	HandUpCancel
)

type HandUpState struct {
	Reason HandUpReason `json:"state"`
	Name   string       `json:"userName"`
}

type Process struct {
	Progress []UserID `json:"progress"`
	MaxWait  int      `json:"maxWait"`
}

type RecordState struct {
	State    int    `json:"state"`
	RecordID string `json:"recordId"`
}

func (r RecordState) Recording() bool { return r.State == 1 }

// RoomStatus is the scalar status block delivered next to each snapshot.
type RoomStatus struct {
	CourseState     int   `json:"courseState"`
	StartTime       int64 `json:"startTime"`
	ChatAllowed     bool  `json:"isStudentChatAllowed"`
	OnlineUserCount int   `json:"onlineUsersCount"`
}

const (
	CourseIdle    = 0
	CourseRunning = 1
	CourseEnded   = 2
)

// Normalize replaces nil namespace maps with empty ones so lookups
// never have to special-case a fresh snapshot.
func (p RoomProperties) Normalize() RoomProperties {
	if p.Students == nil {
		p.Students = map[UserID]StudentRecord{}
	}
	if p.Teachers == nil {
		p.Teachers = map[UserID]TeacherRecord{}
	}
	if p.Groups == nil {
		p.Groups = map[GroupID]GroupRecord{}
	}
	if p.HandUpStates == nil {
		p.HandUpStates = map[UserID]HandUpState{}
	}
	if p.Processes == nil {
		p.Processes = map[string]Process{}
	}
	return p
}

// PropertyPatch is a partial property-tree mutation sent to the
// transport. Nil sub-documents are left untouched on merge.
type PropertyPatch struct {
	Students     map[UserID]StudentRecord `json:"students,omitempty"`
	Groups       map[GroupID]GroupRecord  `json:"groups,omitempty"`
	ClearGroups  bool                     `json:"clearGroups,omitempty"`
	Stage        *StagePlacement          `json:"interactOutGroups,omitempty"`
	HandUpStates map[UserID]HandUpState   `json:"handUpStates,omitempty"`
	Record       *RecordState             `json:"record,omitempty"`
}

// Merge applies a patch to a snapshot and returns the resulting tree.
// This mirrors what the remote side does before echoing the next
// snapshot, so local round-trip behavior can be verified against it.
func (p RoomProperties) Merge(patch PropertyPatch) RoomProperties {
	out := p.Normalize()
	out.Students = copyMap(out.Students)
	out.Groups = copyMap(out.Groups)
	out.HandUpStates = copyMap(out.HandUpStates)

	for id, rec := range patch.Students {
		out.Students[id] = rec
	}
	if patch.ClearGroups {
		out.Groups = map[GroupID]GroupRecord{}
	}
	for id, rec := range patch.Groups {
		out.Groups[id] = rec
	}
	if patch.Stage != nil {
		out.InteractOutGroups = *patch.Stage
	}
	for id, st := range patch.HandUpStates {
		out.HandUpStates[id] = st
	}
	if patch.Record != nil {
		out.Record = *patch.Record
	}
	return out
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package domain

import "sort"

type GroupID string

// GroupMember joins a group membership entry with its student record.
type GroupMember struct {
	UserID   UserID   `json:"userUuid"`
	Name     string   `json:"userName"`
	Reward   int      `json:"reward"`
	StreamID StreamID `json:"streamUuid"`
}

// Group is the derived view of one sub-group.
type Group struct {
	ID      GroupID       `json:"groupUuid"`
	Name    string        `json:"groupName"`
	Members []GroupMember `json:"members"`
}

// DeriveGroups computes the group views by joining the groups namespace
// with the students namespace. Members without a student record are
// kept with zero reward so seating stays stable while records lag.
func DeriveGroups(p RoomProperties) []Group {
	out := make([]Group, 0, len(p.Groups))
	for id, rec := range p.Groups {
		g := Group{ID: id, Name: rec.Name, Members: make([]GroupMember, 0, len(rec.Members))}
		for _, uid := range rec.Members {
			m := GroupMember{UserID: uid}
			if st, ok := p.Students[uid]; ok {
				m.Name = st.Name
				m.Reward = st.Reward
				m.StreamID = st.StreamID
			}
			g.Members = append(g.Members, m)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindGroup returns the derived view of a single group.
func FindGroup(p RoomProperties, id GroupID) (Group, bool) {
	for _, g := range DeriveGroups(p) {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// SlotOf reports which slot a group occupies, if any.
func (s StagePlacement) SlotOf(id GroupID) (string, bool) {
	if id == "" {
		return "", false
	}
	switch id {
	case s.G1:
		return "g1", true
	case s.G2:
		return "g2", true
	}
	return "", false
}

func (s StagePlacement) Full() bool  { return s.G1 != "" && s.G2 != "" }
func (s StagePlacement) Empty() bool { return s.G1 == "" && s.G2 == "" }

// OnStage lists occupied slots in slot order.
func (s StagePlacement) OnStage() []GroupID {
	var out []GroupID
	if s.G1 != "" {
		out = append(out, s.G1)
	}
	if s.G2 != "" {
		out = append(out, s.G2)
	}
	return out
}

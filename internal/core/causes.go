package core

// Cause classifies the semantic reason for a property mutation.
// Causes travel with the patch for downstream auditing; they carry no
// behavior of their own.
type Cause int

const (
	CauseUnknown Cause = iota
	CauseGroupingOn
	CauseGroupingOff
	CauseGroupUpdate
	CauseDiscussToggle
	CauseStageToggle
	CauseGroupAudio
	CauseGroupReward
	CauseHandUp
	CauseStudentList
	CauseReward
)

func (c Cause) String() string {
	switch c {
	case CauseGroupingOn:
		return "grouping_on"
	case CauseGroupingOff:
		return "grouping_off"
	case CauseGroupUpdate:
		return "group_update"
	case CauseDiscussToggle:
		return "discuss_toggle"
	case CauseStageToggle:
		return "stage_toggle"
	case CauseGroupAudio:
		return "group_audio"
	case CauseGroupReward:
		return "group_reward"
	case CauseHandUp:
		return "hand_up"
	case CauseStudentList:
		return "student_list"
	case CauseReward:
		return "reward"
	default:
		return "unknown"
	}
}

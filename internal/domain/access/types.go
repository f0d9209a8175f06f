package access

type AccessState string

const (
	AccessTrial   AccessState = "trial"
	AccessFull    AccessState = "full"
	AccessLimited AccessState = "limited"
	AccessLocked  AccessState = "locked"
)

// rank orders states so the most generous one wins across subscriptions.
func (s AccessState) rank() int {
	switch s {
	case AccessFull:
		return 3
	case AccessTrial:
		return 2
	case AccessLimited:
		return 1
	default:
		return 0
	}
}

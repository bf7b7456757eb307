package constants

const (
	APIServerListenAddress = ":81"
)

// Caller-facing rejection codes. These are stable: the host matches on them.
const (
	ErrActivityUnavailable = "E_ACTIVITY_UNAVAILABLE"
	ErrItemNotQueried      = "E_ITEM_NOT_QUERIED"
	ErrUnfinishedPromise   = "E_UNFINISHED_PROMISE"
	ErrQueryFailed         = "E_QUERY_FAILED"
)

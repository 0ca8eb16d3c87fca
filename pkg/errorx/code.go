package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008
	NotImplemented   Code = 100009
	TooManyRequests  Code = 100010

	// Raffle codes
	Unauthorized           Code = 200001
	InvalidInput           Code = 200002
	InvalidState           Code = 200003
	CapacityExceeded       Code = 200004
	NotYetClosable         Code = 200005
	RequestAlreadyInFlight Code = 200006
	AlreadyFulfilled       Code = 200007
	InvalidCallback        Code = 200008
	RetryCoolingDown       Code = 200009
	AlreadyClaimed         Code = 200010
	TransferFailed         Code = 200011
)

package agent

type Code string

const (
	OK                Code = "OK"
	ErrNotSpawned     Code = "E_NOT_SPAWNED"
	ErrAlreadySpawned Code = "E_ALREADY_SPAWNED"
	ErrTargetNotFound Code = "E_TARGET_NOT_FOUND"
	ErrOutOfBoundary  Code = "E_OUT_OF_BOUNDARY"
	ErrTooFar         Code = "E_TOO_FAR"
	ErrUnreachable    Code = "E_UNREACHABLE"
	ErrInventoryFull  Code = "E_INVENTORY_FULL"
	ErrContainerEmpty Code = "E_CONTAINER_EMPTY"
	ErrBadRequest     Code = "E_BAD_REQUEST"
	ErrFailed         Code = "E_FAILED"
)

// Result is the outcome of one directive. Message is the human-readable
// status line shown to the caller.
type Result struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (r Result) OK() bool { return r.Code == OK }

func (r Result) String() string { return r.Message }

func success(msg string) Result { return Result{Code: OK, Message: msg} }

func refuse(code Code, msg string) Result { return Result{Code: code, Message: msg} }

package frame

import "errors"

// ErrDecode wraps every frame-shape violation: not JSON, wrong arity, wrong
// field types, unknown message-type discriminant. Callers that need to map
// this to a CALLERROR code should treat any error from Decode as
// FormationViolation.
var ErrDecode = errors.New("frame decode error")

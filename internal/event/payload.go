package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gamebus/internal/entity"
)

// timeNow is a variable to allow testing with fixed timestamps.
var timeNow = time.Now

// Payload is the data carried by one publish. It is immutable once built and
// the same value is handed to every matched subscriber.
type Payload struct {
	id         string
	at         time.Time
	originator entity.ID
	receivers  Receivers
	params     []any
}

// NewPayload builds a payload. params are copied.
func NewPayload(originator entity.ID, receivers Receivers, params ...any) Payload {
	var cp []any
	if len(params) > 0 {
		cp = make([]any, len(params))
		copy(cp, params)
	}
	return Payload{
		id:         uuid.NewString(),
		at:         timeNow(),
		originator: originator,
		receivers:  receivers,
		params:     cp,
	}
}

// ID returns the unique payload identifier.
func (p Payload) ID() string {
	return p.id
}

// Timestamp returns when the payload was built.
func (p Payload) Timestamp() time.Time {
	return p.at
}

// Originator returns the publishing entity.
func (p Payload) Originator() entity.ID {
	return p.originator
}

// Receivers returns the receiver specification.
func (p Payload) Receivers() Receivers {
	return p.receivers
}

// Len returns the number of parameters.
func (p Payload) Len() int {
	return len(p.params)
}

// Params returns a copy of the parameters.
func (p Payload) Params() []any {
	if len(p.params) == 0 {
		return nil
	}
	out := make([]any, len(p.params))
	copy(out, p.params)
	return out
}

// Param returns parameter i.
func (p Payload) Param(i int) (any, bool) {
	if i < 0 || i >= len(p.params) {
		return nil, false
	}
	return p.params[i], true
}

// Float returns parameter i as a float64. Any Go numeric type converts.
func (p Payload) Float(i int) (float64, bool) {
	v, ok := p.Param(i)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Int returns parameter i as an int. Floats are truncated.
func (p Payload) Int(i int) (int, bool) {
	v, ok := p.Param(i)
	if !ok {
		return 0, false
	}
	if n, ok := v.(int); ok {
		return n, true
	}
	f, ok := p.Float(i)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Text returns parameter i if it is a string.
func (p Payload) Text(i int) (string, bool) {
	v, ok := p.Param(i)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns parameter i if it is a bool.
func (p Payload) Bool(i int) (bool, bool) {
	v, ok := p.Param(i)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Entity returns parameter i if it is an entity.ID or a string in the
// form produced by ID.String, which is how scripts pass ids.
func (p Payload) Entity(i int) (entity.ID, bool) {
	v, ok := p.Param(i)
	if !ok {
		return entity.Nil, false
	}
	switch id := v.(type) {
	case entity.ID:
		return id, true
	case string:
		parsed, err := entity.ParseID(id)
		return parsed, err == nil
	default:
		return entity.Nil, false
	}
}

// GoString describes the payload for debugging output.
func (p Payload) GoString() string {
	return fmt.Sprintf("event.Payload{originator: %s, receivers: %s, params: %v}", p.originator, p.receivers, p.params)
}

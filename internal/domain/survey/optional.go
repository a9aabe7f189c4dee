package survey

import "encoding/json"

// Optional distinguishes an absent JSON field from one that was supplied,
// including supplied-but-empty. Absent means "leave existing state alone";
// supplied means "this is the full replacement set". JSON null counts as
// absent, matching the upstream feed's behavior.
type Optional[T any] struct {
	value    T
	provided bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, provided: true}
}

func (o Optional[T]) Provided() bool { return o.provided }

func (o Optional[T]) Value() T { return o.value }

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.provided = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.provided {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

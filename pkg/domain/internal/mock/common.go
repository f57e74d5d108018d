package mock

// CallLog records arguments per invocation of a mocked method.
type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}

package util

import "sync"

// RequestBuffer pairs asynchronous producers and consumers: requests wait
// until data is responded, and responses queue until a request arrives.
// Used for IN endpoints, where host reads and device writes are independent.
type RequestBuffer struct {
	lock           *sync.Mutex
	waitingForData map[uint32]func([]byte)
	responses      [][]byte
}

func MakeRequestBuffer() *RequestBuffer {
	buffer := RequestBuffer{
		lock:           &sync.Mutex{},
		waitingForData: make(map[uint32]func([]byte)),
		responses:      make([][]byte, 0),
	}
	return &buffer
}

// Request asks for the next response. If one is already queued, request is
// invoked with it immediately and Request returns true; otherwise request is
// parked under id until Respond or CancelRequest.
func (buffer *RequestBuffer) Request(id uint32, request func(response []byte)) bool {
	buffer.lock.Lock()
	if len(buffer.responses) > 0 {
		response := buffer.responses[0]
		buffer.responses = buffer.responses[1:]
		buffer.lock.Unlock()
		request(response)
		return true
	} else {
		buffer.waitingForData[id] = request
		buffer.lock.Unlock()
		return false
	}
}

func (buffer *RequestBuffer) CancelRequest(id uint32) bool {
	buffer.lock.Lock()
	defer buffer.lock.Unlock()
	if _, ok := buffer.waitingForData[id]; ok {
		delete(buffer.waitingForData, id)
		return true
	} else {
		return false
	}
}

// Respond hands data to a parked request, or queues it if none is waiting.
// No ordering is promised between parked requests.
func (buffer *RequestBuffer) Respond(data []byte) {
	buffer.lock.Lock()
	if len(buffer.waitingForData) > 0 {
		var id uint32
		var request func([]byte)
		for id, request = range buffer.waitingForData {
			break
		}
		delete(buffer.waitingForData, id)
		buffer.lock.Unlock()
		request(data)
	} else {
		buffer.responses = append(buffer.responses, data)
		buffer.lock.Unlock()
	}
}

// Package session 把上传组件的界面状态建模成显式状态机，
// 取代 “processing / cameraActive / error” 这类可以同时为真的散装标志位。
package session

import (
	"errors"
	"fmt"
)

type State int

const (
	Idle State = iota
	CameraActive
	Processing
	Ready
	Failed
)

var stateNames = [...]string{"idle", "camera_active", "processing", "ready", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Event int

const (
	StartCamera Event = iota
	StopCamera
	Submit
	Succeed
	Fail
	Reset
)

var eventNames = [...]string{"start_camera", "stop_camera", "submit", "succeed", "fail", "reset"}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

var ErrInvalidTransition = errors.New("session: invalid transition")

// transitions[from][event] = to
var transitions = map[State]map[Event]State{
	Idle: {
		StartCamera: CameraActive,
		Submit:      Processing,
		Reset:       Idle,
	},
	CameraActive: {
		StopCamera: Idle,
		// 拍照：先关摄像头再进入处理
		Submit: Processing,
		Reset:  Idle,
	},
	Processing: {
		Succeed: Ready,
		Fail:    Failed,
	},
	Ready: {
		StartCamera: CameraActive,
		Submit:      Processing,
		Reset:       Idle,
	},
	Failed: {
		StartCamera: CameraActive,
		Submit:      Processing,
		Reset:       Idle,
	},
}

// Next 返回 from 在 ev 下的下一个状态
func Next(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

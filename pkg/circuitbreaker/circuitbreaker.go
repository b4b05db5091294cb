// Package circuitbreaker 实现熔断器模式（Circuit Breaker Pattern）
//
// 使用场景：包装对Redis缓存后端的调用。缓存只是派生视图，
// 后端不可用时应快速降级为"全部未命中"，而不是让每个请求都等待超时。
//
// 状态机：
// - CLOSED（正常）：请求正常通过，统计失败次数
// - OPEN（熔断）：请求快速失败，不调用后端，等待Timeout后进入HALF_OPEN
// - HALF_OPEN（探测）：放行少量请求探测后端是否恢复
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String 状态转字符串（便于日志）
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrOpenState 熔断器处于打开状态，请求被快速拒绝
var ErrOpenState = errors.New("circuit breaker is open")

// Counts 统计数据（一个统计窗口内）
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) reset() {
	*c = Counts{}
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许通过的最大探测请求数
	MaxRequests uint32

	// Interval 关闭状态下的统计窗口，窗口到期后重置计数
	Interval time.Duration

	// Timeout 打开状态的持续时间，到期后进入半开
	Timeout time.Duration

	// ReadyToTrip 根据统计判断是否熔断，nil时默认连续5次失败熔断
	ReadyToTrip func(counts Counts) bool
}

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	name        string
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	readyToTrip func(counts Counts) bool

	mu            sync.Mutex
	state         State
	counts        Counts
	halfOpenCount uint32    // 半开状态下已放行的请求数
	expiry        time.Time // 当前状态/窗口的到期时间
	onStateChange func(name string, from, to State)
}

// New 创建熔断器
func New(name string, config Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:        name,
		maxRequests: config.MaxRequests,
		interval:    config.Interval,
		timeout:     config.Timeout,
		readyToTrip: config.ReadyToTrip,
		state:       StateClosed,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 5
		}
	}
	if cb.interval > 0 {
		cb.expiry = time.Now().Add(cb.interval)
	}
	return cb
}

// SetStateChangeCallback 设置状态变化回调（记录日志、更新指标）
func (cb *CircuitBreaker) SetStateChangeCallback(fn func(name string, from, to State)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// State 返回当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh(time.Now())
	return cb.state
}

// Execute 执行请求
// 熔断打开时立即返回ErrOpenState，不调用req
func (cb *CircuitBreaker) Execute(req func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := req()
	cb.afterRequest(err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.refresh(now)

	switch cb.state {
	case StateOpen:
		return ErrOpenState
	case StateHalfOpen:
		if cb.halfOpenCount >= cb.maxRequests {
			return ErrOpenState
		}
		cb.halfOpenCount++
	}

	cb.counts.Requests++
	return nil
}

func (cb *CircuitBreaker) afterRequest(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if success {
		cb.counts.onSuccess()
		if cb.state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.maxRequests {
			cb.setState(StateClosed, time.Now())
		}
		return
	}

	cb.counts.onFailure()
	switch cb.state {
	case StateClosed:
		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, time.Now())
		}
	case StateHalfOpen:
		// 探测失败，回到打开状态
		cb.setState(StateOpen, time.Now())
	}
}

// refresh 处理到期的状态/窗口转换，调用方必须持有锁
func (cb *CircuitBreaker) refresh(now time.Time) {
	switch cb.state {
	case StateClosed:
		if cb.interval > 0 && !cb.expiry.IsZero() && now.After(cb.expiry) {
			cb.counts.reset()
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		if now.After(cb.expiry) {
			cb.setState(StateHalfOpen, now)
		}
	}
}

// setState 状态切换，调用方必须持有锁
func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}
	from := cb.state
	cb.state = state
	cb.counts.reset()
	cb.halfOpenCount = 0

	switch state {
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	case StateClosed:
		if cb.interval > 0 {
			cb.expiry = now.Add(cb.interval)
		} else {
			cb.expiry = time.Time{}
		}
	default:
		cb.expiry = time.Time{}
	}

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, state)
	}
}

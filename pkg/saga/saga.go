// Package saga 实现带补偿的多步骤事务框架
//
// 核心思想：
// 1. 将跨外部系统的长操作拆分为多个步骤，每个步骤有对应的补偿操作
// 2. 某步失败时，对所有已完成步骤执行补偿（尽最大努力，逆完成顺序）
// 3. 已完成步骤列表是一个可审计的值，补偿集合可以脱离网络调用单独测试
//
// 与数据库事务的区别：对象存储、消息队列等外部系统无法加入本地事务，
// 只能通过显式的逆操作（删除已上传对象等）达到最终一致。
package saga

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Step 表示Saga中的一个步骤
//
// 设计要点：
// 1. Action是正向操作（如上传一个对象）
// 2. Compensate是补偿操作（如删除已上传的对象）
// 3. 补偿操作必须幂等：对已删除的key再次删除不应报错
type Step struct {
	Name       string                          // 步骤名称（用于日志和诊断）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作（可为nil）
}

// CompensationFailure 一次失败的补偿记录
// 补偿失败不会覆盖主错误，调用方通过Failures()取出做日志/告警
type CompensationFailure struct {
	Step string
	Err  error
}

func (f CompensationFailure) Error() string {
	return fmt.Sprintf("补偿步骤[%s]失败: %v", f.Step, f.Err)
}

// 步骤组：组内步骤并发执行，组间顺序执行
type stepGroup struct {
	steps    []Step
	parallel bool
}

// Saga 表示一个带补偿的多步骤事务
type Saga struct {
	groups   []stepGroup
	timeout  time.Duration
	mu       sync.Mutex
	executed []Step                // 已完成的步骤（按完成顺序）
	failures []CompensationFailure // 最近一次补偿中失败的步骤
}

// New 创建Saga
// timeout为整体超时时间，0表示不限制；超时视同步骤失败，触发补偿
func New(timeout time.Duration) *Saga {
	return &Saga{timeout: timeout}
}

// AddStep 追加一个顺序步骤
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.groups = append(s.groups, stepGroup{
		steps: []Step{{Name: name, Action: action, Compensate: compensate}},
	})
}

// AddParallel 追加一组并发步骤
// 组内步骤之间不允许有依赖（如对独立key的多个上传）；
// 组内任一步骤失败时，组内已成功的步骤同样进入补偿集合
func (s *Saga) AddParallel(steps ...Step) {
	if len(steps) == 0 {
		return
	}
	s.groups = append(s.groups, stepGroup{steps: steps, parallel: true})
}

// Execute 执行Saga
//
// 执行流程：
// 1. 按组顺序执行，组内并发执行
// 2. 任一步骤失败立即停止后续组，对已完成步骤逆序补偿
// 3. 返回首个失败步骤的错误（主错误）；补偿自身的失败通过Failures()获取
//
// 补偿使用独立的Context：正向操作超时不应连带取消清理动作
func (s *Saga) Execute(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for _, g := range s.groups {
		select {
		case <-ctx.Done():
			s.compensate(context.Background())
			return fmt.Errorf("saga超时: %w", ctx.Err())
		default:
		}

		var err error
		if g.parallel {
			err = s.runParallel(ctx, g.steps)
		} else {
			err = s.runSequential(ctx, g.steps)
		}
		if err != nil {
			s.compensate(context.Background())
			return err
		}
	}

	return nil
}

// Executed 返回已完成步骤的名称（审计用）
func (s *Saga) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.executed))
	for i, step := range s.executed {
		names[i] = step.Name
	}
	return names
}

// Failures 返回最近一次补偿流程中失败的补偿步骤
func (s *Saga) Failures() []CompensationFailure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CompensationFailure(nil), s.failures...)
}

func (s *Saga) runSequential(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				return fmt.Errorf("步骤[%s]执行失败: %w", step.Name, err)
			}
		}
		s.markExecuted(step)
	}
	return nil
}

func (s *Saga) runParallel(ctx context.Context, steps []Step) error {
	var wg sync.WaitGroup
	errs := make([]error, len(steps))

	for i, step := range steps {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()
			if step.Action != nil {
				if err := step.Action(ctx); err != nil {
					errs[i] = fmt.Errorf("步骤[%s]执行失败: %w", step.Name, err)
					return
				}
			}
			// 成功的步骤立即记录：同组其他步骤失败时它需要被补偿
			s.markExecuted(step)
		}(i, step)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Saga) markExecuted(step Step) {
	s.mu.Lock()
	s.executed = append(s.executed, step)
	s.mu.Unlock()
}

// compensate 对已完成步骤逆序执行补偿
// 即使某个补偿失败也继续执行剩余补偿（尽最大努力），失败记录到failures
func (s *Saga) compensate(ctx context.Context) {
	s.mu.Lock()
	executed := s.executed
	s.executed = nil
	s.failures = nil
	s.mu.Unlock()

	var failures []CompensationFailure
	for i := len(executed) - 1; i >= 0; i-- {
		step := executed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			failures = append(failures, CompensationFailure{Step: step.Name, Err: err})
		}
	}

	s.mu.Lock()
	s.failures = failures
	s.mu.Unlock()
}

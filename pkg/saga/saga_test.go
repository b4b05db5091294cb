package saga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSaga_Execute_Success 测试所有步骤成功的场景
func TestSaga_Execute_Success(t *testing.T) {
	executed := make([]string, 0)

	s := New(5 * time.Second)
	s.AddStep("转换封面",
		func(ctx context.Context) error {
			executed = append(executed, "转换封面")
			return nil
		},
		nil,
	)
	s.AddStep("上传封面",
		func(ctx context.Context) error {
			executed = append(executed, "上传封面")
			return nil
		},
		func(ctx context.Context) error {
			executed = append(executed, "删除封面")
			return nil
		},
	)

	err := s.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"转换封面", "上传封面"}, executed)
	assert.Equal(t, []string{"转换封面", "上传封面"}, s.Executed())
	assert.Empty(t, s.Failures())
}

// TestSaga_Execute_FailureAndCompensate 测试步骤失败触发逆序补偿
func TestSaga_Execute_FailureAndCompensate(t *testing.T) {
	executed := make([]string, 0)

	s := New(5 * time.Second)
	s.AddStep("上传封面",
		func(ctx context.Context) error {
			executed = append(executed, "上传封面")
			return nil
		},
		func(ctx context.Context) error {
			executed = append(executed, "删除封面")
			return nil
		},
	)
	s.AddStep("上传文档",
		func(ctx context.Context) error {
			executed = append(executed, "上传文档")
			return nil
		},
		func(ctx context.Context) error {
			executed = append(executed, "删除文档")
			return nil
		},
	)
	s.AddStep("写入目录",
		func(ctx context.Context) error {
			executed = append(executed, "写入目录")
			return errors.New("数据库不可用")
		},
		nil,
	)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "写入目录")

	// 正向3步 + 逆序补偿2步
	expected := []string{"上传封面", "上传文档", "写入目录", "删除文档", "删除封面"}
	assert.Equal(t, expected, executed)
}

// TestSaga_Parallel_PartialFailure 并发组内一个步骤失败，已成功的步骤同样被补偿
func TestSaga_Parallel_PartialFailure(t *testing.T) {
	var mu sync.Mutex
	compensated := make([]string, 0)

	s := New(5 * time.Second)
	s.AddParallel(
		Step{
			Name: "上传封面",
			Action: func(ctx context.Context) error {
				return nil
			},
			Compensate: func(ctx context.Context) error {
				mu.Lock()
				compensated = append(compensated, "封面")
				mu.Unlock()
				return nil
			},
		},
		Step{
			Name: "上传文档",
			Action: func(ctx context.Context) error {
				return errors.New("连接超时")
			},
			Compensate: func(ctx context.Context) error {
				mu.Lock()
				compensated = append(compensated, "文档")
				mu.Unlock()
				return nil
			},
		},
	)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "上传文档")

	// 只有成功的步骤需要补偿
	assert.Equal(t, []string{"封面"}, compensated)
	assert.Empty(t, s.Executed(), "补偿后已执行列表应被清空")
}

// TestSaga_CompensationFailureDoesNotMaskPrimary 补偿失败不覆盖主错误
func TestSaga_CompensationFailureDoesNotMaskPrimary(t *testing.T) {
	primary := errors.New("上传被拒绝")

	s := New(5 * time.Second)
	s.AddStep("上传封面",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("删除也失败了") },
	)
	s.AddStep("上传文档",
		func(ctx context.Context) error { return primary },
		nil,
	)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, primary, "应返回主错误而非补偿错误")

	failures := s.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "上传封面", failures[0].Step)
}

// TestSaga_CompensationContinuesAfterFailure 某个补偿失败后继续执行剩余补偿
func TestSaga_CompensationContinuesAfterFailure(t *testing.T) {
	compensated := make([]string, 0)

	s := New(5 * time.Second)
	s.AddStep("步骤A",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "A")
			return nil
		},
	)
	s.AddStep("步骤B",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = append(compensated, "B")
			return errors.New("B补偿失败")
		},
	)
	s.AddStep("步骤C",
		func(ctx context.Context) error { return errors.New("C失败") },
		nil,
	)

	err := s.Execute(context.Background())
	require.Error(t, err)

	// B补偿失败后A仍然被补偿
	assert.Equal(t, []string{"B", "A"}, compensated)
	require.Len(t, s.Failures(), 1)
	assert.Equal(t, "步骤B", s.Failures()[0].Step)
}

// TestSaga_Execute_Timeout 测试超时触发补偿
func TestSaga_Execute_Timeout(t *testing.T) {
	compensated := false

	s := New(50 * time.Millisecond)
	s.AddStep("快速步骤",
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error {
			compensated = true
			return nil
		},
	)
	s.AddStep("慢速步骤",
		func(ctx context.Context) error {
			select {
			case <-time.After(200 * time.Millisecond):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		nil,
	)

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.True(t, compensated, "超时后应补偿已完成步骤")
}

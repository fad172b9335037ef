package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/shopwise/recsys/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义可引用的变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("query", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Eval 是推荐结果过滤表达式的解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.price < 2000 / item.score > 0.7
//   - 字符串：item.brand == "Apple" / item.category.contains("电")
//   - 逻辑：item.category == "手机" && item.price < 5000
//   - 来源：item.source == "collaborative"
//
// 表达式编译一次后可对任意条推荐反复求值。
type Eval struct {
	prg cel.Program
}

// NewEval 编译一个过滤表达式。语法错误在此处暴露，求值阶段不再报编译错。
func NewEval(expr string) (*Eval, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	return &Eval{prg: prg}, nil
}

// Matches 对单条推荐求值，返回布尔结果。
func (e *Eval) Matches(rec *core.Recommendation, query *core.Query) (bool, error) {
	input := map[string]interface{}{
		"item": map[string]interface{}{
			"id":       rec.ItemID,
			"name":     rec.Name,
			"price":    rec.Price,
			"category": rec.Category,
			"brand":    rec.Brand,
			"score":    rec.Score,
			"source":   string(rec.Source),
		},
		"query": map[string]interface{}{
			"user_id":   "",
			"algorithm": "",
			"category":  "",
		},
	}
	if query != nil {
		input["query"] = map[string]interface{}{
			"user_id":   query.UserID,
			"algorithm": string(query.Algorithm),
			"category":  query.Category,
		}
	}

	out, _, err := e.prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

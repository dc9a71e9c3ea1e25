package service

import (
	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
)

// Pipeline 把一次保存拆成多个命名单元按序执行：先对全部单元做
// 校验，任何一个失败都否决整次保存；全部通过后再按注册顺序逐个
// 落库。"general" 单元永远排在第一位。
type Pipeline struct {
	units []pipelineEntry
}

type pipelineEntry struct {
	unit hook.FormUnit
	gate func() bool
}

// NewPipeline 创建空流水线。
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add 追加一个无条件执行的单元。
func (p *Pipeline) Add(unit hook.FormUnit) *Pipeline {
	return p.AddIf(unit, nil)
}

// AddIf 追加一个带开关的单元；gate 返回 false 时单元在本次保存中
// 被整体跳过（校验和落库都不执行）。gate 在校验阶段求值一次。
func (p *Pipeline) AddIf(unit hook.FormUnit, gate func() bool) *Pipeline {
	p.units = append(p.units, pipelineEntry{unit: unit, gate: gate})
	return p
}

// Run 执行流水线：两阶段，先全量校验后全量落库。
// 校验阶段第一个错误即中止，不会有半成品写入。
func (p *Pipeline) Run(caller *domain.User) error {
	active := make([]hook.FormUnit, 0, len(p.units))
	for _, entry := range p.units {
		if entry.gate != nil && !entry.gate() {
			continue
		}
		active = append(active, entry.unit)
	}
	for _, unit := range active {
		if err := unit.Validate(); err != nil {
			return err
		}
	}
	for _, unit := range active {
		if err := unit.Save(caller); err != nil {
			return err
		}
	}
	return nil
}

// funcUnit 用函数组装一个表单单元，省去为每个调用点定义类型。
type funcUnit struct {
	name     string
	validate func() error
	save     func(caller *domain.User) error
}

// NewFormUnit 从函数构造表单单元；validate 可以为 nil 表示无校验。
func NewFormUnit(name string, validate func() error, save func(caller *domain.User) error) hook.FormUnit {
	return &funcUnit{name: name, validate: validate, save: save}
}

func (u *funcUnit) Name() string { return u.name }

func (u *funcUnit) Validate() error {
	if u.validate == nil {
		return nil
	}
	return u.validate()
}

func (u *funcUnit) Save(caller *domain.User) error {
	return u.save(caller)
}

// 包 tzerr：统一错误分类（非法输入 / 初始化失败 / 数据一致性故障），供解析链路与对外接口判定
package tzerr

import "github.com/joomcode/errorx"

var (
	Namespace = errorx.NewNamespace("geotz")

	// InvalidInput：经纬度非有限值或纬度越界；调用方可恢复，直接拒绝本次请求
	InvalidInput = Namespace.NewType("invalid_input")
	// Initialization：边界或偏移资产缺失/损坏；不可恢复，服务不得对外提供查询
	Initialization = Namespace.NewType("initialization")
	// Inconsistency：数据准备阶段的缺陷（国家层标识无偏移记录、经度带未覆盖），必须显式暴露
	Inconsistency = Namespace.NewType("inconsistency")
)

func IsInvalidInput(err error) bool   { return errorx.IsOfType(err, InvalidInput) }
func IsInitialization(err error) bool { return errorx.IsOfType(err, Initialization) }
func IsInconsistency(err error) bool  { return errorx.IsOfType(err, Inconsistency) }

// Package errors はgoplda全体で使うエラー型と警告の仕組みをまとめたパッケージです。
// 回復不能な失敗は構造化エラーとして返し、処理を続行できる異常は
// scikit-learn流の警告として警告ハンドラへ流します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	警告の配送
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// ハンドラ未設定時は標準のlogパッケージへ出力する
		log.Printf("goplda-Warning: %v\n", w)
	}
	// pkg/logへの依存は循環importになるため、zerolog出力は関数注入で受け取る
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告の配送先を差し替えます。nilを渡すと警告は破棄されます。
// テストで警告を収集したり、警告をエラーに昇格させたりする用途を想定しています。
//
// 例:
//
//	var warnings []error
//	errors.SetWarningHandler(func(w error) {
//	    warnings = append(warnings, w)
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog経由の警告出力関数を登録します。
// pkg/logの初期化時に呼ばれ、以後Warnはこちらを優先します。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は処理を中断しない異常を報告します。ハンドラ呼び出しは
// ミューテックスで直列化されるため、並行するWarnが混ざることはありません。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	非致命的な警告型
//
// ===========================================================================

// DiagonalizationWarning は固有基底で変換した散布行列の非対角残差が
// 許容値に収まらなかったことを示します。適合自体は続行されますが、
// 基底の条件が悪い可能性があります。
type DiagonalizationWarning struct {
	Op        string
	Residual  float64
	Tolerance float64
}

func (w *DiagonalizationWarning) Error() string {
	return fmt.Sprintf("%s: off-diagonal residual %.3g exceeds tolerance %.3g; scatter diagonalization is inexact", w.Op, w.Residual, w.Tolerance)
}

// MarshalZerologObject はzerologのイベントへ残差と許容値をフィールドとして書き出します。
func (w *DiagonalizationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Float64("residual", w.Residual).
		Float64("tolerance", w.Tolerance).
		Str("type", "DiagonalizationWarning")
}

// NewDiagonalizationWarning はDiagonalizationWarningを組み立てます。
func NewDiagonalizationWarning(op string, residual, tolerance float64) *DiagonalizationWarning {
	return &DiagonalizationWarning{Op: op, Residual: residual, Tolerance: tolerance}
}

// UndefinedMetricWarning は評価指標が定義できない入力に対して
// 代替値を返したことを示します。AUCで片方のクラスが空だった場合などです。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// NewUndefinedMetricWarning はUndefinedMetricWarningを組み立てます。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化エラー型
//
// ===========================================================================

// NotFittedError は未学習のモデルに対してPredictやTransformを
// 呼び出したことを示します。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("goplda: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントへモデル名と呼び出しメソッドを書き出します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError はスタックトレース付きのNotFittedErrorを返します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力の次元が学習時と一致しないことを示します。
// Axisは0が行(標本数)、1が列(特徴量数)です。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("goplda: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントへ期待次元と実際の次元を書き出します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError はスタックトレース付きのDimensionErrorを返します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError は名前付きパラメータの検証失敗を示します。
// どの値が不正だったかをValueで保持します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("goplda: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントへパラメータ名と不正値を書き出します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError はスタックトレース付きのValidationErrorを返します。
func NewValidationError(param, reason string, value any) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値そのものが不正なことを示します。
// 事前オッズに負数を渡した場合などに使います。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("goplda: %s: %s", e.Op, e.Message)
}

// NewValueError はスタックトレース付きのValueErrorを返します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError はモデル操作の一般的な失敗を表し、原因エラーを保持します。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("goplda: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("goplda: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError はスタックトレース付きのModelErrorを返します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は計算中にNaNやInfが現れたことを示します。
// メッセージには先頭5個までの異常値を含めます。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Context   map[string]any // デバッグ用の追加情報
}

func (e *NumericalInstabilityError) Error() string {
	var sb strings.Builder
	for i, v := range e.Values {
		if i > 0 {
			sb.WriteString(", ")
		}
		if i >= 5 {
			sb.WriteString("...")
			break
		}
		fmt.Fprintf(&sb, "%.6g", v)
	}
	return fmt.Sprintf("goplda: numerical instability detected in %s. Values: [%s]", e.Operation, sb.String())
}

// NewNumericalInstabilityError はスタックトレース付きのNumericalInstabilityErrorを返します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Context:   make(map[string]any),
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	PLDA特有のエラー型
//
// ===========================================================================

// DegenerateClassError は標本が2つ未満のクラスがあり、
// 不偏共分散を定義できないことを示します。
type DegenerateClassError struct {
	Op      string
	ClassID int
	Count   int
}

func (e *DegenerateClassError) Error() string {
	return fmt.Sprintf("goplda: %s: class %d has %d example(s); at least 2 are required for an unbiased covariance", e.Op, e.ClassID, e.Count)
}

// MarshalZerologObject はzerologのイベントへクラスIDと標本数を書き出します。
func (e *DegenerateClassError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("class_id", e.ClassID).
		Int("count", e.Count).
		Str("type", "DegenerateClassError")
}

// NewDegenerateClassError はスタックトレース付きのDegenerateClassErrorを返します。
func NewDegenerateClassError(op string, classID, count int) error {
	err := &DegenerateClassError{Op: op, ClassID: classID, Count: count}
	return errors.WithStack(err)
}

// SingularScatterError はクラス内散布行列が正定値でなく、
// 一般化固有値問題を解けないことを示します。先にPCAなどで
// 次元を落とすことで回避できます。
type SingularScatterError struct {
	Op     string
	Size   int
	Detail string
}

func (e *SingularScatterError) Error() string {
	msg := fmt.Sprintf("goplda: %s: within-class scatter (%dx%d) is not positive definite; reduce dimensionality before fitting", e.Op, e.Size, e.Size)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// MarshalZerologObject はzerologのイベントへ行列サイズと詳細を書き出します。
func (e *SingularScatterError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("size", e.Size).
		Str("detail", e.Detail).
		Str("type", "SingularScatterError")
}

// NewSingularScatterError はスタックトレース付きのSingularScatterErrorを返します。
func NewSingularScatterError(op string, size int, detail string) error {
	err := &SingularScatterError{Op: op, Size: size, Detail: detail}
	return errors.WithStack(err)
}

// NoDiscriminativeDimensionsError は潜在事前分散がすべてゼロに
// クランプされ、判別に使える次元が残らなかったことを示します。
type NoDiscriminativeDimensionsError struct {
	Op   string
	Dims int
}

func (e *NoDiscriminativeDimensionsError) Error() string {
	return fmt.Sprintf("goplda: %s: all %d latent prior variances clamped to zero; no discriminative dimensions remain", e.Op, e.Dims)
}

// NewNoDiscriminativeDimensionsError はスタックトレース付きのNoDiscriminativeDimensionsErrorを返します。
func NewNoDiscriminativeDimensionsError(op string, dims int) error {
	err := &NoDiscriminativeDimensionsError{Op: op, Dims: dims}
	return errors.WithStack(err)
}

// InvalidTrainingSetError は学習データがPLDAの前提を満たさないことを
// 示します。クラス数が2未満、またはクラス当たり平均標本数が1以下の場合です。
type InvalidTrainingSetError struct {
	Op          string
	Classes     int
	AvgPerClass float64
	Reason      string
}

func (e *InvalidTrainingSetError) Error() string {
	return fmt.Sprintf("goplda: %s: invalid training set: %s (classes=%d, avg examples/class=%.2f)", e.Op, e.Reason, e.Classes, e.AvgPerClass)
}

// MarshalZerologObject はzerologのイベントへクラス数と平均標本数を書き出します。
func (e *InvalidTrainingSetError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("classes", e.Classes).
		Float64("avg_per_class", e.AvgPerClass).
		Str("reason", e.Reason).
		Str("type", "InvalidTrainingSetError")
}

// NewInvalidTrainingSetError はスタックトレース付きのInvalidTrainingSetErrorを返します。
func NewInvalidTrainingSetError(op string, classes int, avgPerClass float64, reason string) error {
	err := &InvalidTrainingSetError{Op: op, Classes: classes, AvgPerClass: avgPerClass, Reason: reason}
	return errors.WithStack(err)
}

// EmptyGalleryError は事後分布の計算対象となる標本集合が空なことを
// 示します。ClassIDが負の場合はクラスに紐づかない集合です。
type EmptyGalleryError struct {
	Op      string
	ClassID int
}

func (e *EmptyGalleryError) Error() string {
	if e.ClassID >= 0 {
		return fmt.Sprintf("goplda: %s: class %d has no examples; the posterior requires at least one", e.Op, e.ClassID)
	}
	return fmt.Sprintf("goplda: %s: empty gallery; the posterior requires at least one example", e.Op)
}

// NewEmptyGalleryError はスタックトレース付きのEmptyGalleryErrorを返します。
func NewEmptyGalleryError(op string, classID int) error {
	err := &EmptyGalleryError{Op: op, ClassID: classID}
	return errors.WithStack(err)
}

// EmptyExampleSetError は仮説検定に渡された標本集合が空なことを示します。
type EmptyExampleSetError struct {
	Op  string
	Set string // "probe", "gallery" など
}

func (e *EmptyExampleSetError) Error() string {
	return fmt.Sprintf("goplda: %s: %s set is empty; the marginal likelihood requires at least one example", e.Op, e.Set)
}

// NewEmptyExampleSetError はスタックトレース付きのEmptyExampleSetErrorを返します。
func NewEmptyExampleSetError(op, set string) error {
	err := &EmptyExampleSetError{Op: op, Set: set}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors の再エクスポート
//
// ===========================================================================
//
// 利用側がこのパッケージだけをimportすれば済むように、
// cockroachdb/errorsの基本操作を再エクスポートしています。

// Is はerrの連鎖にtargetが含まれるかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はerrの連鎖からtargetの型に合致するエラーを取り出します。
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap はメッセージを前置してerrをラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf はフォーマット済みメッセージを前置してerrをラップします。
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// New はスタックトレース付きの新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf はスタックトレース付きのフォーマット済みエラーを作成します。
func Newf(format string, args ...any) error {
	return errors.Newf(format, args...)
}

// WithStack は既存のエラーに現在位置のスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	番兵エラー
//
// ===========================================================================

var (
	// ErrNotImplemented は未実装の機能を表す番兵エラーです。
	ErrNotImplemented = New("not implemented")

	// ErrEmptyData は入力に標本が1つもないことを表す番兵エラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は行列分解が特異性で失敗したことを表す番兵エラーです。
	ErrSingularMatrix = New("singular matrix")
)

package preprocessing

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/core/model"
)

func init() {
	// Reducer実装をgobに登録し、インターフェース経由の永続化を可能にする
	gob.Register(&IdentityReducer{})
	gob.Register(&PCA{})
}

// Reducer は学習・推論データをモデルに渡す前に低次元空間へ射影する
// 前処理コンポーネントのインターフェースです。
//
// 削減を設定しない場合はIdentityReducerを使い、TransformとInverseTransformは
// 恒等写像として振る舞います。削減する場合（クラス内散布行列が特異に
// なる高次元データなど）はPCAを使います。
//
// どの実装を使うかは構成時に一度だけ決定され、呼び出しごとに分岐しません。
type Reducer interface {
	model.InverseTransformer
}

// IdentityReducer は削減を行わないReducerです。
// TransformとInverseTransformは入力をそのまま返します。
type IdentityReducer struct{}

// NewIdentityReducer は新しいIdentityReducerを作成する
func NewIdentityReducer() *IdentityReducer {
	return &IdentityReducer{}
}

// Fit は何も学習しない（恒等変換のため）
func (r *IdentityReducer) Fit(X mat.Matrix) error {
	return nil
}

// Transform は入力をそのまま返す
func (r *IdentityReducer) Transform(X mat.Matrix) (mat.Matrix, error) {
	return X, nil
}

// FitTransform は入力をそのまま返す
func (r *IdentityReducer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	return X, nil
}

// InverseTransform は入力をそのまま返す
func (r *IdentityReducer) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return X, nil
}

// String はReducerの文字列表現を返す
func (r *IdentityReducer) String() string {
	return "IdentityReducer()"
}

// GobEncode はgobシリアライゼーション用のエンコードを行う
// 状態を持たないため空のバイト列を返す
func (r *IdentityReducer) GobEncode() ([]byte, error) {
	return []byte{}, nil
}

// GobDecode はgobシリアライゼーション用のデコードを行う
func (r *IdentityReducer) GobDecode([]byte) error {
	return nil
}

// コンパイル時のインターフェース実装チェック
var (
	_ Reducer = (*IdentityReducer)(nil)
	_ Reducer = (*PCA)(nil)
)

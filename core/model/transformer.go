package model

import "gonum.org/v1/gonum/mat"

// Transformer は教師なしのデータ変換のインターフェース。
// preprocessing パッケージの次元削減器が実装する。
type Transformer interface {
	// Fit は変換に必要な統計量を学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みの統計量でデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform は同じデータに対する Fit と Transform をまとめて行う
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer は逆変換まで提供する変換器のインターフェース。
// 変換が恒等写像のとき、InverseTransform も恒等写像として振る舞う。
type InverseTransformer interface {
	Transformer

	// InverseTransform は変換済みデータを元の空間に戻す
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

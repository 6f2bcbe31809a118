package model

import "gonum.org/v1/gonum/mat"

// Fitter は教師あり学習を行う推定器のインターフェース。
// plda.PLDA が実装する。
type Fitter interface {
	// Fit は特徴量行列 X（標本×特徴量）とラベル列ベクトル y で
	// モデルを学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は学習済みモデルによる予測のインターフェース。
type Predictor interface {
	// Predict は入力の各行に対する予測クラスを列ベクトルで返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer は予測性能の要約値を返すモデルのインターフェース。
type Scorer interface {
	// Score はテストデータに対する性能を返す（分類器では精度）
	Score(X, y mat.Matrix) (float64, error)
}

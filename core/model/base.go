package model

// BaseEstimator は学習状態フラグを提供する埋め込み用の基底構造体。
// 単一ゴルーチンで使う前処理系の推定器（preprocessing.PCA など）が
// これを埋め込み、Fit の成功時に SetFitted を呼ぶ。並行アクセスの
// 保護が必要な推定器は代わりに StateManager を合成する。
type BaseEstimator struct {
	fitted bool
}

// IsFitted はモデルが学習済みかどうかを返す。
func (e *BaseEstimator) IsFitted() bool {
	return e.fitted
}

// SetFitted はモデルを学習済み状態にする。
func (e *BaseEstimator) SetFitted() {
	e.fitted = true
}

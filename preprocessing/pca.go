package preprocessing

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/core/model"
	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// 数値ランク判定に使う倍精度の機械イプシロン
const machineEpsilon = 2.220446049250313e-16

// PCA は特異値分解による主成分分析
// 高次元データを分散の大きい部分空間へ射影する
//
// クラス内散布行列が特異になる高次元データでは、モデルの学習前に
// PCAで次元を落としておく必要がある。
type PCA struct {
	model.BaseEstimator

	// NComponents は保持する成分数 (0 = 数値ランクから自動決定)
	NComponents int

	// NFeatures は入力の特徴量数
	NFeatures int

	// NSamples は学習に使ったサンプル数
	NSamples int

	// Mean は中心化に使う特徴量ごとの平均
	Mean []float64

	// Components は主成分軸 (k × n_features、各行が1つの軸)
	Components *mat.Dense

	// SingularValues は保持した成分の特異値
	SingularValues []float64

	// ExplainedVarianceRatio は保持した各成分が説明する分散の割合
	ExplainedVarianceRatio []float64
}

// NewPCA は新しいPCAを作成する
//
// パラメータ:
//   - nComponents: 保持する成分数 (0を指定すると数値ランクから自動決定)
//
// 戻り値:
//   - *PCA: 新しいPCAインスタンス
//
// 使用例:
//
//	pca := preprocessing.NewPCA(10)
//	err := pca.Fit(X)
//	XReduced, err := pca.Transform(X)
func NewPCA(nComponents int) *PCA {
	return &PCA{
		NComponents: nComponents,
	}
}

// Fit は訓練データから主成分軸を計算する
//
// 中心化したデータの薄い特異値分解を取り、右特異ベクトルを
// 特異値の大きい順に保持する。
//
// パラメータ:
//   - X: 学習データ (n_samples × n_features)
//
// 戻り値:
//   - error: 失敗時のエラー
func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	maxRank := r
	if c < maxRank {
		maxRank = c
	}
	if p.NComponents < 0 {
		return errors.NewValueError("PCA.Fit", fmt.Sprintf("n_components must be non-negative, got %d", p.NComponents))
	}
	if p.NComponents > maxRank {
		return errors.NewValueError("PCA.Fit",
			fmt.Sprintf("n_components=%d exceeds min(n_samples, n_features)=%d", p.NComponents, maxRank))
	}

	// 平均を計算してデータを中心化
	p.NFeatures = c
	p.NSamples = r
	p.Mean = make([]float64, c)
	for j := 0; j < c; j++ {
		sum := 0.0
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		p.Mean[j] = sum / float64(r)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-p.Mean[j])
		}
	}

	// 薄い特異値分解
	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return errors.NewModelError("PCA.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}

	sv := svd.Values(nil)

	// 保持する成分数を決定する
	// 自動モードでは数値ランク（特異値が許容誤差を超える個数）を使う
	k := p.NComponents
	if k == 0 {
		tol := float64(maxInt(r, c)) * machineEpsilon * sv[0]
		for _, s := range sv {
			if s > tol {
				k++
			}
		}
		if k == 0 {
			return errors.NewModelError("PCA.Fit", "data has zero numerical rank", errors.ErrSingularMatrix)
		}
	}

	// 右特異ベクトルを行として保持する
	// Vの列が特異ベクトルなので転置して格納する
	var v mat.Dense
	svd.VTo(&v)
	p.Components = mat.NewDense(k, c, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < c; j++ {
			p.Components.Set(i, j, v.At(j, i))
		}
	}

	// 特異値と説明分散比を記録
	total := 0.0
	for _, s := range sv {
		total += s * s
	}
	p.SingularValues = make([]float64, k)
	p.ExplainedVarianceRatio = make([]float64, k)
	for i := 0; i < k; i++ {
		p.SingularValues[i] = sv[i]
		if total > 0 {
			p.ExplainedVarianceRatio[i] = sv[i] * sv[i] / total
		}
	}

	p.SetFitted()
	return nil
}

// Transform は学習済みの主成分軸でデータを射影する
//
// パラメータ:
//   - X: 変換するデータ (n_samples × n_features)
//
// 戻り値:
//   - mat.Matrix: 射影されたデータ (n_samples × k)
//   - error: 失敗時のエラー
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "Transform")
	}

	r, c := X.Dims()
	if c != p.NFeatures {
		return nil, errors.NewDimensionError("PCA.Transform", p.NFeatures, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			centered.Set(i, j, X.At(i, j)-p.Mean[j])
		}
	}

	k, _ := p.Components.Dims()
	result := mat.NewDense(r, k, nil)
	result.Mul(centered, p.Components.T())
	return result, nil
}

// FitTransform は学習と変換を一度に行う
//
// パラメータ:
//   - X: 学習してそのまま射影するデータ
//
// 戻り値:
//   - mat.Matrix: 射影されたデータ
//   - error: 失敗時のエラー
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// InverseTransform は射影されたデータを元の特徴量空間に戻す
//
// 保持しなかった成分の情報は失われるため、復元は近似になる。
//
// パラメータ:
//   - X: 射影されたデータ (n_samples × k)
//
// 戻り値:
//   - mat.Matrix: 復元されたデータ (n_samples × n_features)
//   - error: 失敗時のエラー
func (p *PCA) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !p.IsFitted() {
		return nil, errors.NewNotFittedError("PCA", "InverseTransform")
	}

	r, c := X.Dims()
	k, _ := p.Components.Dims()
	if c != k {
		return nil, errors.NewDimensionError("PCA.InverseTransform", k, c, 1)
	}

	result := mat.NewDense(r, p.NFeatures, nil)
	result.Mul(X, p.Components)
	for i := 0; i < r; i++ {
		for j := 0; j < p.NFeatures; j++ {
			result.Set(i, j, result.At(i, j)+p.Mean[j])
		}
	}
	return result, nil
}

// GetParams はPCAのパラメータを取得する
func (p *PCA) GetParams() map[string]any {
	return map[string]any{
		"n_components": p.NComponents,
	}
}

// String はPCAの文字列表現を返す
func (p *PCA) String() string {
	if !p.IsFitted() {
		return fmt.Sprintf("PCA(n_components=%d)", p.NComponents)
	}
	k, _ := p.Components.Dims()
	return fmt.Sprintf("PCA(n_components=%d, n_features=%d, fitted_components=%d)",
		p.NComponents, p.NFeatures, k)
}

// pcaState はgobシリアライゼーション用のスナップショット
// mat.Denseはエクスポートされたフィールドを持たないため平坦化して保存する
type pcaState struct {
	NComponents            int
	NFeatures              int
	NSamples               int
	Mean                   []float64
	ComponentsRows         int
	ComponentsCols         int
	ComponentsData         []float64
	SingularValues         []float64
	ExplainedVarianceRatio []float64
	Fitted                 bool
}

// GobEncode はgobシリアライゼーション用のエンコードを行う
func (p *PCA) GobEncode() ([]byte, error) {
	state := pcaState{
		NComponents:            p.NComponents,
		NFeatures:              p.NFeatures,
		NSamples:               p.NSamples,
		Mean:                   p.Mean,
		SingularValues:         p.SingularValues,
		ExplainedVarianceRatio: p.ExplainedVarianceRatio,
		Fitted:                 p.IsFitted(),
	}
	if p.Components != nil {
		state.ComponentsRows, state.ComponentsCols = p.Components.Dims()
		state.ComponentsData = make([]float64, 0, state.ComponentsRows*state.ComponentsCols)
		for i := 0; i < state.ComponentsRows; i++ {
			state.ComponentsData = append(state.ComponentsData, p.Components.RawRowView(i)...)
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, errors.Wrap(err, "failed to encode PCA state")
	}
	return buf.Bytes(), nil
}

// GobDecode はgobシリアライゼーション用のデコードを行う
func (p *PCA) GobDecode(data []byte) error {
	var state pcaState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "failed to decode PCA state")
	}

	p.NComponents = state.NComponents
	p.NFeatures = state.NFeatures
	p.NSamples = state.NSamples
	p.Mean = state.Mean
	p.SingularValues = state.SingularValues
	p.ExplainedVarianceRatio = state.ExplainedVarianceRatio
	if state.ComponentsRows > 0 {
		p.Components = mat.NewDense(state.ComponentsRows, state.ComponentsCols, state.ComponentsData)
	}
	if state.Fitted {
		p.SetFitted()
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ExplainedVariance は保持した各成分の分散を返す
//
// 分散は特異値から sv² / (n_samples - 1) で復元される。
func (p *PCA) ExplainedVariance() []float64 {
	if p.SingularValues == nil || p.NSamples < 2 {
		return nil
	}
	out := make([]float64, len(p.SingularValues))
	for i, s := range p.SingularValues {
		out[i] = s * s / float64(p.NSamples-1)
	}
	return out
}

// ReconstructionError は元データと射影・復元したデータの
// 二乗平均平方根誤差 (RMSE) を返す
//
// パラメータ:
//   - X: 元のデータ
//
// 戻り値:
//   - float64: 再構成誤差
//   - error: 失敗時のエラー
func (p *PCA) ReconstructionError(X mat.Matrix) (float64, error) {
	reduced, err := p.Transform(X)
	if err != nil {
		return 0, err
	}
	restored, err := p.InverseTransform(reduced)
	if err != nil {
		return 0, err
	}

	r, c := X.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := X.At(i, j) - restored.At(i, j)
			sum += d * d
		}
	}
	return math.Sqrt(sum / float64(r*c)), nil
}

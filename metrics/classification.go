package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// checkVectorPair はメトリクス共通の入力検証を行い、
// 検証済みのベクトル長を返す。
func checkVectorPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "input vectors cannot be nil")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "input vectors cannot be empty")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	return n, nil
}

// checkBinaryLabels は yTrue が 0/1 のみで構成されているか検証する。
func checkBinaryLabels(yTrue *mat.VecDense) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValidationError(
				"yTrue",
				fmt.Sprintf("must contain only binary values (0 or 1), found %g at index %d", v, i),
				v,
			)
		}
	}
	return nil
}

// AUC はROC曲線下面積（Area Under the ROC Curve）を計算する。
//
// スコアの降順に閾値を動かしながらTPR/FPRを累積し、台形則で面積を求める。
// 同一スコアのサンプル群は1つの閾値として扱うため、全スコアが等しい場合は
// ランダム分類器と同じ0.5になる。yTrueが片方のクラスしか含まない場合は
// AUCが定義できないため、UndefinedMetricWarningを発行して0.5を返す。
//
// 同クラス検定の対数尤度比スコアを yPred に渡すことで、
// 検証タスクの識別性能を評価できる。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectorPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels(yTrue); err != nil {
		return 0, err
	}

	var pos, neg float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return yPred.AtVec(order[i]) > yPred.AtVec(order[j])
	})

	// 同一スコアのサンプルをまとめて処理しながら台形則で積分する
	var auc, tp, fp, prevTP, prevFP float64
	for i := 0; i < n; {
		j := i
		for j < n && yPred.AtVec(order[j]) == yPred.AtVec(order[i]) {
			if yTrue.AtVec(order[j]) == 1 {
				tp++
			} else {
				fp++
			}
			j++
		}
		auc += (fp - prevFP) / neg * (tp + prevTP) / (2 * pos)
		prevTP, prevFP = tp, fp
		i = j
	}

	return auc, nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する。
// 各行列の先頭列をラベル・スコアのベクトルとして扱う。
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("AUCMatrix", "input matrices cannot be nil")
	}

	rTrue, _ := yTrue.Dims()
	rPred, _ := yPred.Dims()
	if rTrue == 0 || rPred == 0 {
		return 0, errors.NewValueError("AUCMatrix", "input matrices cannot be empty")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
	}
	for i := 0; i < rPred; i++ {
		yPredVec.SetVec(i, yPred.At(i, 0))
	}

	return AUC(yTrueVec, yPredVec)
}

// BinaryLogLoss は二値交差エントロピー損失を計算する。
// log(0)を避けるため、予測確率は [ε, 1-ε] にクリップされる。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectorPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels(yTrue); err != nil {
		return 0, err
	}

	const eps = 1e-15

	var loss float64
	for i := 0; i < n; i++ {
		p := math.Min(math.Max(yPred.AtVec(i), eps), 1-eps)
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}

	return loss / float64(n), nil
}

// ClassificationError は誤分類率（誤って分類されたサンプルの割合）を計算する。
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectorPair("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	miss := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != yPred.AtVec(i) {
			miss++
		}
	}

	return float64(miss) / float64(n), nil
}

// Accuracy は正解率（正しく分類されたサンプルの割合）を計算する。
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	errRate, err := ClassificationError(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - errRate, nil
}

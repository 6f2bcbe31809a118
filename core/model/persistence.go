package model

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// SaveModel は学習済みモデルを gob 形式でファイルに保存する。
// 保存対象は gob でエンコード可能であること（goplda の推定器は
// GobEncoder/GobDecoder を実装している）。
//
// 使用例:
//
//	clf := plda.NewPLDA()
//	// ... Fitで学習 ...
//	err := model.SaveModel(clf, "model.gob")
func SaveModel(model any, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルに保存されたモデルを復元する。model には
// 復元先のポインタを渡す。
//
// 使用例:
//
//	clf := plda.NewPLDA()
//	err := model.LoadModel(clf, "model.gob")
func LoadModel(model any, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルを gob エンコードして w に書き込む。
func SaveModelToWriter(model any, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// LoadModelFromReader は r の gob ストリームを model に復元する。
func LoadModelFromReader(model any, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	return nil
}

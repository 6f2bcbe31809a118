package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParamsEnvelope は学習済みパラメータのJSON交換フォーマット
//
// モデル名とフォーマットバージョンを持つ外側のエンベロープに、
// モデル固有のパラメータをそのままのJSONとして格納する。
// 他言語の実装とパラメータを受け渡すために使う。
type ParamsEnvelope struct {
	Model         string          `json:"model"`
	FormatVersion string          `json:"format_version"`
	Params        json.RawMessage `json:"params"`
}

// WriteParamsEnvelope はパラメータをエンベロープに包んでWriterへ書き出す
//
// パラメータ:
//   - w: 出力先のWriter
//   - name: モデル名 (例: "plda")
//   - version: フォーマットバージョン (例: "1.0")
//   - params: JSONにマーシャルするパラメータ
//
// 戻り値:
//   - error: 書き出しに失敗した場合のエラー
func WriteParamsEnvelope(w io.Writer, name, version string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}

	env := ParamsEnvelope{
		Model:         name,
		FormatVersion: version,
		Params:        raw,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&env); err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}
	return nil
}

// ReadParamsEnvelope はReaderからエンベロープを読み込み、モデル名を検証する
//
// フォーマットバージョンの互換性判定は呼び出し側のモデルが行う。
//
// パラメータ:
//   - r: エンベロープJSONを読み出すReader
//   - name: 期待するモデル名
//
// 戻り値:
//   - *ParamsEnvelope: 読み込まれたエンベロープ
//   - error: 読み込みまたは検証に失敗した場合のエラー
func ReadParamsEnvelope(r io.Reader, name string) (*ParamsEnvelope, error) {
	var env ParamsEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Model != name {
		return nil, fmt.Errorf("model mismatch: expected %q, got %q", name, env.Model)
	}
	return &env, nil
}

package domain

import (
	"encoding/json"
	"fmt"
)

// StepType — тип шага цепочки.
//
// Набор закрыт: новые типы добавляются только сюда и в AllStepTypes,
// после чего реестр шагов и валидатор обязаны их обработать
// (см. steps.TestDefaultRegistry_CoversAllTypes).
type StepType string

const (
	StepTypeURLEncode    StepType = "url-encode"
	StepTypeURLDecode    StepType = "url-decode"
	StepTypeBase64Encode StepType = "base64-encode"
	StepTypeBase64Decode StepType = "base64-decode"
	StepTypeRSAEncrypt   StepType = "rsa-encrypt"
	StepTypeRSADecrypt   StepType = "rsa-decrypt"
	StepTypeHTTPParse    StepType = "http-parse"
	StepTypeHTTPBuild    StepType = "http-build"
)

// AllStepTypes возвращает все поддерживаемые типы шагов в каноническом порядке.
func AllStepTypes() []StepType {
	return []StepType{
		StepTypeURLEncode,
		StepTypeURLDecode,
		StepTypeBase64Encode,
		StepTypeBase64Decode,
		StepTypeRSAEncrypt,
		StepTypeRSADecrypt,
		StepTypeHTTPParse,
		StepTypeHTTPBuild,
	}
}

// IsValid возвращает true, если тип входит в закрытый набор.
func (t StepType) IsValid() bool {
	switch t {
	case StepTypeURLEncode, StepTypeURLDecode,
		StepTypeBase64Encode, StepTypeBase64Decode,
		StepTypeRSAEncrypt, StepTypeRSADecrypt,
		StepTypeHTTPParse, StepTypeHTTPBuild:
		return true
	default:
		return false
	}
}

// IsRSA возвращает true для шагов, которым нужен ключ.
func (t StepType) IsRSA() bool {
	return t == StepTypeRSAEncrypt || t == StepTypeRSADecrypt
}

// Label возвращает человекочитаемое имя типа.
func (t StepType) Label() string {
	switch t {
	case StepTypeURLEncode:
		return "URL Encode"
	case StepTypeURLDecode:
		return "URL Decode"
	case StepTypeBase64Encode:
		return "Base64 Encode"
	case StepTypeBase64Decode:
		return "Base64 Decode"
	case StepTypeRSAEncrypt:
		return "RSA Encrypt"
	case StepTypeRSADecrypt:
		return "RSA Decrypt"
	case StepTypeHTTPParse:
		return "HTTP Parse"
	case StepTypeHTTPBuild:
		return "HTTP Build"
	default:
		return string(t)
	}
}

// String реализует fmt.Stringer.
func (t StepType) String() string {
	return string(t)
}

// Step — один шаг цепочки.
//
// Порядок шагов внутри шаблона значим. Шаги создаются и редактируются
// клиентом (UI/CLI), исполнитель только читает их.
type Step struct {
	// ID — уникальный идентификатор шага.
	ID string

	// Type — тип трансформации.
	Type StepType

	// Enabled — выключенные шаги пропускаются целиком.
	Enabled bool

	// Name — необязательная подпись для отображения.
	Name string

	// Params — параметры, вариант зависит от Type:
	//   - rsa-*       → RSAParams
	//   - http-parse  → HTTPParseParams
	//   - http-build  → HTTPBuildParams
	//   - кодировки   → nil
	Params Params
}

// DisplayName возвращает подпись шага или, если её нет, имя типа.
func (s *Step) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type.Label()
}

// RSA возвращает параметры RSA шага (нулевое значение, если их нет).
func (s *Step) RSA() RSAParams {
	switch p := s.Params.(type) {
	case RSAParams:
		return p
	case *RSAParams:
		if p != nil {
			return *p
		}
	}
	return RSAParams{}
}

// HTTPParse возвращает параметры http-parse шага.
func (s *Step) HTTPParse() HTTPParseParams {
	switch p := s.Params.(type) {
	case HTTPParseParams:
		return p
	case *HTTPParseParams:
		if p != nil {
			return *p
		}
	}
	return HTTPParseParams{}
}

// HTTPBuild возвращает параметры http-build шага.
func (s *Step) HTTPBuild() HTTPBuildParams {
	switch p := s.Params.(type) {
	case HTTPBuildParams:
		return p
	case *HTTPBuildParams:
		if p != nil {
			return *p
		}
	}
	return HTTPBuildParams{}
}

// stepJSON — формат шага при сериализации.
type stepJSON struct {
	ID      string          `json:"id"`
	Type    StepType        `json:"type"`
	Enabled *bool           `json:"enabled,omitempty"`
	Name    string          `json:"name,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MarshalJSON реализует json.Marshaler.
func (s Step) MarshalJSON() ([]byte, error) {
	enabled := s.Enabled
	out := stepJSON{
		ID:      s.ID,
		Type:    s.Type,
		Enabled: &enabled,
		Name:    s.Name,
	}

	if s.Params != nil {
		raw, err := json.Marshal(s.Params)
		if err != nil {
			return nil, fmt.Errorf("marshal params of step %s: %w", s.ID, err)
		}
		out.Params = raw
	}

	return json.Marshal(out)
}

// UnmarshalJSON реализует json.Unmarshaler.
//
// Параметры декодируются в вариант, соответствующий типу шага.
// Для неизвестного типа параметры сохраняются как RawParams — ошибка
// будет выдана валидатором или исполнителем, а не на этапе чтения.
// Отсутствующий enabled трактуется как true.
func (s *Step) UnmarshalJSON(data []byte) error {
	var in stepJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	s.ID = in.ID
	s.Type = in.Type
	s.Name = in.Name
	s.Enabled = in.Enabled == nil || *in.Enabled

	params, err := decodeParams(in.Type, in.Params)
	if err != nil {
		return fmt.Errorf("step %s: %w", in.ID, err)
	}
	s.Params = params

	return nil
}

// decodeParams декодирует параметры в вариант по типу шага.
func decodeParams(t StepType, raw json.RawMessage) (Params, error) {
	empty := len(raw) == 0 || string(raw) == "null"

	switch t {
	case StepTypeRSAEncrypt, StepTypeRSADecrypt:
		var p RSAParams
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode rsa params: %w", err)
			}
		}
		return p, nil

	case StepTypeHTTPParse:
		var p HTTPParseParams
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode http-parse params: %w", err)
			}
		}
		return p, nil

	case StepTypeHTTPBuild:
		var p HTTPBuildParams
		if !empty {
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, fmt.Errorf("decode http-build params: %w", err)
			}
		}
		return p, nil

	case StepTypeURLEncode, StepTypeURLDecode, StepTypeBase64Encode, StepTypeBase64Decode:
		// Шаги кодирования параметров не имеют
		return nil, nil

	default:
		if empty {
			return nil, nil
		}
		return RawParams(append([]byte(nil), raw...)), nil
	}
}

// EnabledSteps возвращает включённые шаги, сохраняя порядок.
func EnabledSteps(steps []Step) []Step {
	enabled := make([]Step, 0, len(steps))
	for _, s := range steps {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

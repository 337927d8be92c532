// Package pricingv1 описывает gRPC API сервиса пересчёта цен заказов.
//
// Сообщения передаются в JSON через codec с content-subtype "json";
// клиенты должны вызывать методы с grpc.CallContentSubtype(CodecName).
package pricingv1

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName — content-subtype JSON codec ("application/grpc+json").
const CodecName = "json"

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec сериализует сообщения API в JSON.
type Codec struct{}

// Marshal кодирует сообщение.
func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal декодирует сообщение; пустое тело оставляет значение нулевым.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal %T: %w", v, err)
	}
	return nil
}

// Name возвращает content-subtype codec.
func (Codec) Name() string {
	return CodecName
}

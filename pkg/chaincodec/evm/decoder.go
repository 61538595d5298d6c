package evm

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	cerrors "github.com/chainkit/chainkit/pkg/chaincodec/errors"
	"github.com/chainkit/chainkit/pkg/chaincodec/schema"
	"github.com/chainkit/chainkit/pkg/chaincodec/types"
)

// Fingerprint reads raw.Topics[0] and validates it as a 64-hex-digit value.
// Returns ("", false) when there is no topic 0 or it is malformed, per
// spec §4.2: "otherwise returns None".
func Fingerprint(raw RawLog) (string, bool) {
	if len(raw.Topics) == 0 {
		return "", false
	}
	clean := strings.ToLower(strings.TrimPrefix(raw.Topics[0], "0x"))
	if len(clean) != 64 {
		return "", false
	}
	if _, err := hex.DecodeString(clean); err != nil {
		return "", false
	}
	return "0x" + clean, true
}

// DecodeEvent decodes raw against schema s, following the five-step
// algorithm in spec §4.2.
func DecodeEvent(raw RawLog, s *schema.Schema) (*DecodedEvent, error) {
	indexedFields := s.IndexedFields()
	nonIndexedFields := s.NonIndexedFields()

	if len(raw.Topics) == 0 {
		return nil, &cerrors.DecodeError{Kind: cerrors.InvalidRawEvent, Chain: raw.Chain.Slug, Detail: "log has no topics"}
	}
	if len(indexedFields) != len(raw.Topics)-1 {
		return nil, &cerrors.DecodeError{
			Kind: cerrors.AbiDecodeFailed, Chain: raw.Chain.Slug,
			Detail: fmt.Sprintf("schema %s declares %d indexed fields, log has %d", s.Name, len(indexedFields), len(raw.Topics)-1),
		}
	}

	decodeErrors := make(map[string]error)
	nvs := make(map[string]types.NormalizedValue)

	for i, f := range indexedFields {
		topicHex := strings.TrimPrefix(raw.Topics[1+i], "0x")
		word, err := hex.DecodeString(topicHex)
		if err != nil || len(word) != 32 {
			decodeErrors[f.Name] = fmt.Errorf("evm: malformed topic %d: %w", i+1, err)
			continue
		}
		nv, err := decodeIndexedWord(f.Type, word)
		if err != nil {
			decodeErrors[f.Name] = err
			continue
		}
		nvs[f.Name] = nv
	}

	args := make(abi.Arguments, 0, len(nonIndexedFields))
	for _, f := range nonIndexedFields {
		at, err := toAbiType(f.Type)
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Chain: raw.Chain.Slug, Detail: fmt.Sprintf("field %q: %v", f.Name, err), Cause: err}
		}
		args = append(args, abi.Argument{Name: f.Name, Type: at})
	}
	if len(args) > 0 || len(raw.Data) > 0 {
		unpacked, err := args.UnpackValues(raw.Data)
		if err != nil {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Chain: raw.Chain.Slug, Detail: "non-indexed data unpack failed", Cause: err}
		}
		if len(unpacked) != len(nonIndexedFields) {
			return nil, &cerrors.DecodeError{Kind: cerrors.AbiDecodeFailed, Chain: raw.Chain.Slug, Detail: "unpacked value count mismatch"}
		}
		for i, f := range nonIndexedFields {
			nv, err := normalizeAbiValue(f.Type, unpacked[i])
			if err != nil {
				decodeErrors[f.Name] = err
				continue
			}
			nvs[f.Name] = nv
		}
	}

	fields := make([]FieldValue, 0, len(s.Fields))
	for _, f := range s.Fields {
		nv, ok := nvs[f.Name]
		if !ok {
			continue
		}
		fields = append(fields, FieldValue{Name: f.Name, Value: nv})
	}

	return &DecodedEvent{
		SchemaName:     s.Name,
		SchemaVersion:  s.Version,
		Chain:          raw.Chain,
		TxHash:         raw.TxHash,
		BlockNumber:    raw.BlockNumber,
		BlockTimestamp: raw.BlockTimestamp,
		LogIndex:       raw.LogIndex,
		Address:        raw.Address,
		Fields:         fields,
		DecodeErrors:   decodeErrors,
	}, nil
}

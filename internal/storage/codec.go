package storage

import (
	"encoding/json"
	"errors"

	"cellevo/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp fills the version fields written with every persisted record.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func EncodeState(s model.EvolutionState) ([]byte, error) {
	s.VersionedRecord = Stamp()
	s.Config.VersionedRecord = Stamp()
	return json.Marshal(s)
}

func DecodeState(data []byte) (model.EvolutionState, error) {
	var state model.EvolutionState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.EvolutionState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.EvolutionState{}, err
	}
	return state, nil
}

func EncodeRunConfig(c model.RunConfig) ([]byte, error) {
	c.VersionedRecord = Stamp()
	return json.Marshal(c)
}

func DecodeRunConfig(data []byte) (model.RunConfig, error) {
	var cfg model.RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.RunConfig{}, err
	}
	if err := checkVersion(cfg.VersionedRecord); err != nil {
		return model.RunConfig{}, err
	}
	return cfg, nil
}

func EncodeEpochHistory(history []model.EpochRecord) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeEpochHistory(data []byte) ([]model.EpochRecord, error) {
	var history []model.EpochRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

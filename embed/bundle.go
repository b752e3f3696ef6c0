package embed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/rushteam/simrec/feature"
)

// 工件文件名；每个文件都可独立加载。
const (
	FileConfig      = "embed_config.json"
	FileVectorizers = "tfidf_vectorizers.json"
	FileReducers    = "field_reducers.json"
	FileJointSVD    = "svd_model.json"
	FileGenres      = "genres_mlb.json"
	FileLanguages   = "languages_mlb.json"
	FileCountries   = "countries_mlb.json"
)

// Save 将全部变换写入 dir。
func (t *Transformers) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	writes := []struct {
		name string
		v    any
	}{
		{FileConfig, t.Config},
		{FileVectorizers, t.Text.Vectorizers},
		{FileReducers, t.Text.Reducers},
		{FileJointSVD, t.Fuser.Reducer},
		{FileGenres, t.Categorical.Genres},
		{FileLanguages, t.Categorical.Languages},
		{FileCountries, t.Categorical.Countries},
	}
	for _, w := range writes {
		if err := writeJSON(filepath.Join(dir, w.name), w.v); err != nil {
			return err
		}
	}
	t.logger.Info().Str("dir", dir).Msg("transformers saved")
	return nil
}

// Load 从 dir 读取全部变换，还原同一向量空间。
func Load(dir string, opts ...Option) (*Transformers, error) {
	var cfg Config
	if err := readJSON(filepath.Join(dir, FileConfig), &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := newTransformers(cfg, opts...)

	vecs, err := LoadVectorizers(filepath.Join(dir, FileVectorizers))
	if err != nil {
		return nil, err
	}
	var reducers map[string]*feature.TruncatedSVD
	if err := readJSON(filepath.Join(dir, FileReducers), &reducers); err != nil {
		return nil, err
	}
	t.Text = NewTextEmbedder(cfg, t.logger)
	for _, field := range cfg.Fields {
		if vecs[field] == nil || reducers[field] == nil {
			return nil, invalid(fmt.Sprintf("embed: artifacts missing field %s", field))
		}
		t.Text.Vectorizers[field] = vecs[field]
		t.Text.Reducers[field] = reducers[field]
	}

	joint, err := LoadReducer(filepath.Join(dir, FileJointSVD))
	if err != nil {
		return nil, err
	}
	t.Fuser = &Fuser{Dim: joint.Width, Reducer: joint}

	t.Categorical = &feature.CategoricalEncoder{}
	if t.Categorical.Genres, err = LoadEncoder(filepath.Join(dir, FileGenres)); err != nil {
		return nil, err
	}
	if t.Categorical.Languages, err = LoadEncoder(filepath.Join(dir, FileLanguages)); err != nil {
		return nil, err
	}
	if t.Categorical.Countries, err = LoadEncoder(filepath.Join(dir, FileCountries)); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadVectorizers 读取逐字段的 TF-IDF 向量化器。
func LoadVectorizers(path string) (map[string]*feature.TFIDFVectorizer, error) {
	var vecs map[string]*feature.TFIDFVectorizer
	if err := readJSON(path, &vecs); err != nil {
		return nil, err
	}
	return vecs, nil
}

// LoadReducer 读取单个降维器。
func LoadReducer(path string) (*feature.TruncatedSVD, error) {
	var s feature.TruncatedSVD
	if err := readJSON(path, &s); err != nil {
		return nil, err
	}
	if !s.IsFitted {
		return nil, invalid(fmt.Sprintf("embed: reducer %s is not fitted", path))
	}
	return &s, nil
}

// LoadEncoder 读取单个多标签编码器。
func LoadEncoder(path string) (*feature.MultiHotEncoder, error) {
	var e feature.MultiHotEncoder
	if err := readJSON(path, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

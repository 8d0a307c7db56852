package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/farmbot/gofarm/pkg/logger"
)

// Service 持久化服务接口
type Service interface {
	NewStore(name string) Store
}

// Store 存储接口
type Store interface {
	Save(data interface{}) error
	Load(data interface{}) error
}

// ErrNotExists 表示数据不存在
var ErrNotExists = fmt.Errorf("persistence data not exists")

// JSONFileService 基于 JSON 文件的持久化服务
type JSONFileService struct {
	baseDir string
}

// NewJSONFileService 创建 JSON 文件持久化服务
func NewJSONFileService(baseDir string) *JSONFileService {
	return &JSONFileService{
		baseDir: baseDir,
	}
}

// NewStore 创建新的存储（name 形如 "device-registry"、"wallets"）
func (s *JSONFileService) NewStore(name string) Store {
	return &JSONFileStore{
		service: s,
		name:    name,
	}
}

var nameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// JSONFileStore JSON 文件存储实现
type JSONFileStore struct {
	service *JSONFileService
	name    string
}

func (s *JSONFileStore) filePath() string {
	safe := nameSanitizer.ReplaceAllString(s.name, "_")
	return filepath.Join(s.service.baseDir, safe+".json")
}

// Save 保存数据（先写临时文件再 rename，避免进程中断产生截断文件）
func (s *JSONFileStore) Save(data interface{}) error {
	logger.Debugf("[persistence] Save: name=%s", s.name)
	if err := os.MkdirAll(s.service.baseDir, 0o755); err != nil {
		return err
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	path := s.filePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load 加载数据
func (s *JSONFileStore) Load(data interface{}) error {
	logger.Debugf("[persistence] Load: name=%s", s.name)
	path := s.filePath()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotExists
		}
		return err
	}
	if len(b) == 0 {
		return ErrNotExists
	}
	return json.Unmarshal(b, data)
}

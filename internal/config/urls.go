package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// DefaultURLsFileName 心跳地址文件名
const DefaultURLsFileName = "urls.json"

// URLTarget 心跳目标，启动时加载一次，运行期间不可变
type URLTarget struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

type urlsFile struct {
	URLs *[]URLTarget `json:"urls"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultURLsPath 返回可执行文件所在目录下的 urls.json
func DefaultURLsPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultURLsFileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultURLsFileName)
}

// LoadURLs 按文件中的顺序加载心跳目标，任何格式问题都视为错误
func LoadURLs(path string) ([]URLTarget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取心跳地址文件失败: %w", err)
	}

	var f urlsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析心跳地址文件失败: %w", err)
	}
	if f.URLs == nil {
		return nil, errors.New("心跳地址文件缺少 urls 字段")
	}

	targets := *f.URLs
	for i := range targets {
		if err := validate.Struct(targets[i]); err != nil {
			return nil, fmt.Errorf("urls[%d] 无效: %w", i, err)
		}
	}
	return targets, nil
}

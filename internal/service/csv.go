package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"multichat/internal/model"
	"multichat/internal/utils"
	"multichat/pkg/logger"
)

const csvSampleRows = 5

// CSVService 解析本地或远端 CSV，提取行列元数据与样例行
type CSVService struct {
	httpClient *http.Client
}

func NewCSVService() *CSVService {
	return &CSVService{
		httpClient: utils.NewHTTPClient(30 * time.Second),
	}
}

// Parse 解析磁盘上的 CSV 文件
func (s *CSVService) Parse(path, filename string) (*model.FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	rec, err := s.parse(f)
	if err != nil {
		return nil, err
	}

	rec.Filename = filepath.Base(filename)
	rec.Path = path
	rec.SizeBytes = info.Size()

	return rec, nil
}

// LoadFromURL 从 URL 拉取并解析 CSV；GitHub blob 链接自动改写为 raw 链接
func (s *CSVService) LoadFromURL(url string) (*model.FileRecord, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidURL)
	}

	if strings.Contains(url, "github.com") && strings.Contains(url, "/blob/") {
		url = strings.Replace(url, "github.com", "raw.githubusercontent.com", 1)
		url = strings.Replace(url, "/blob/", "/", 1)
		logger.Infof("GitHub 链接改写为 raw: %s", url)
	}

	resp, err := s.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: remote returned %s", ErrInvalidCSV, resp.Status)
	}

	rec, err := s.parse(resp.Body)
	if err != nil {
		return nil, err
	}

	filename := url[strings.LastIndex(url, "/")+1:]
	if filename == "" {
		filename = "remote.csv"
	}
	rec.Filename = filename

	return rec, nil
}

func (s *CSVService) parse(r io.Reader) (*model.FileRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	rows := 0
	var sample []map[string]string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidCSV, rows+1, err)
		}

		if rows < csvSampleRows {
			row := make(map[string]string, len(columns))
			for i, col := range columns {
				if i < len(record) {
					row[col] = record[i]
				}
			}
			sample = append(sample, row)
		}
		rows++
	}

	logger.Debugf("CSV 解析完成: %d 行 %d 列", rows, len(columns))

	return &model.FileRecord{
		Kind:       model.FileCSV,
		UploadedAt: model.Now(),
		Rows:       rows,
		Columns:    columns,
		Sample:     sample,
	}, nil
}

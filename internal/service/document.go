package service

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"multichat/internal/model"
	"multichat/pkg/logger"
)

const (
	maxDocumentSizeBytes = 20 << 20 // 20MB
	documentPreviewChars = 200
)

var allowedDocumentExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

// DocumentService 校验并解析文档（pdf/docx/txt/md），
// 抽取正文用于聊天上下文
type DocumentService struct{}

func NewDocumentService() *DocumentService {
	return &DocumentService{}
}

// AllowedExt 判断扩展名是否受支持
func (s *DocumentService) AllowedExt(filename string) bool {
	return allowedDocumentExts[strings.ToLower(filepath.Ext(filename))]
}

// Parse 校验大小与类型，抽取正文并统计字符/词数
func (s *DocumentService) Parse(path, filename string) (*model.FileRecord, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocumentExts[ext] {
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidDocument, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if info.Size() > maxDocumentSizeBytes {
		return nil, fmt.Errorf("%w: file too large (%d bytes, max %d)",
			ErrInvalidDocument, info.Size(), maxDocumentSizeBytes)
	}

	var text string
	switch ext {
	case ".txt", ".md":
		text, err = parsePlainText(path)
	case ".pdf":
		text, err = parsePDF(path)
	case ".docx":
		text, err = parseDOCX(path)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	preview := text
	if len(preview) > documentPreviewChars {
		preview = TruncateWords(preview, documentPreviewChars)
	}

	logger.Infof("文档解析完成: %s，%d 字符", filename, len(text))

	return &model.FileRecord{
		Kind:       model.FileDocument,
		Filename:   filepath.Base(filename),
		Path:       path,
		SizeBytes:  info.Size(),
		UploadedAt: model.Now(),
		Text:       text,
		CharCount:  len(text),
		WordCount:  len(strings.Fields(text)),
		Preview:    preview,
	}, nil
}

func parsePlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return string(data), nil
}

func parsePDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot open pdf: %v", ErrInvalidDocument, err)
	}
	defer doc.Close()

	var b strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		text, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrInvalidDocument, page+1, err)
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s\n", page+1, text)
	}

	return b.String(), nil
}

// docx 即打包成 zip 的 WordprocessingML，正文在 word/document.xml 的 <w:t> 节点里
func parseDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot open docx: %v", ErrInvalidDocument, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		defer rc.Close()

		return extractDOCXText(rc)
	}

	return "", fmt.Errorf("%w: word/document.xml missing", ErrInvalidDocument)
}

func extractDOCXText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var b strings.Builder
	var inText bool

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "p":
				if b.Len() > 0 {
					b.WriteString("\n\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}

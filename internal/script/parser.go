// Package script 解析 SQL 脚本文件为可逐条执行的语句列表。
package script

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/Connexions/plpydbapi/pkg/models"
)

var dollarTagPattern = regexp.MustCompile(`^\$[A-Za-z_][A-Za-z0-9_]*\$|^\$\$`)

// ParseFile 解析SQL脚本文件。以分号切分语句, 跳过 -- 注释,
// 单引号串和美元引号块 ($tag$ ... $tag$) 中的分号不作为语句边界
func ParseFile(path string) ([]models.SQLTask, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var tasks []models.SQLTask
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var buf strings.Builder
	lineNum := 0
	inQuote := false
	dollarTag := ""

	flush := func(endLine int) {
		sql := strings.TrimSpace(buf.String())
		buf.Reset()
		if sql == "" {
			return
		}
		tasks = append(tasks, models.SQLTask{
			SQL:      sql,
			Type:     classify(sql),
			LineNum:  endLine,
			Filename: path,
		})
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		// 引号外跳过空行和整行注释
		if !inQuote && dollarTag == "" {
			if trimmed == "" || strings.HasPrefix(trimmed, "--") {
				continue
			}
		}

		i := 0
		for i < len(line) {
			switch {
			case dollarTag != "":
				if strings.HasPrefix(line[i:], dollarTag) {
					buf.WriteString(dollarTag)
					i += len(dollarTag)
					dollarTag = ""
					continue
				}
				buf.WriteByte(line[i])
				i++
			case inQuote:
				if line[i] == '\'' {
					inQuote = false
				}
				buf.WriteByte(line[i])
				i++
			default:
				if strings.HasPrefix(line[i:], "--") {
					// 行内注释, 丢弃该行剩余部分
					i = len(line)
					continue
				}
				if line[i] == '\'' {
					inQuote = true
					buf.WriteByte(line[i])
					i++
					continue
				}
				if line[i] == '$' {
					if tag := dollarTagPattern.FindString(line[i:]); tag != "" {
						dollarTag = tag
						buf.WriteString(tag)
						i += len(tag)
						continue
					}
				}
				if line[i] == ';' {
					flush(lineNum)
					i++
					continue
				}
				buf.WriteByte(line[i])
				i++
			}
		}
		buf.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// 文件末尾允许缺少分号
	flush(lineNum)
	return tasks, nil
}

// classify 按语句前缀区分查询和其他语句
func classify(sql string) models.SQLType {
	upper := strings.ToUpper(sql)
	switch {
	case strings.HasPrefix(upper, "SELECT"),
		strings.HasPrefix(upper, "WITH"),
		strings.HasPrefix(upper, "TABLE"),
		strings.HasPrefix(upper, "VALUES"),
		strings.HasPrefix(upper, "SHOW"),
		strings.HasPrefix(upper, "EXPLAIN"):
		return models.SQLTypeQuery
	}
	return models.SQLTypeExec
}

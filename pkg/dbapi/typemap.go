package dbapi

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/Connexions/plpydbapi/pkg/spi"
)

// TypeClass 列类型的粗分类, 近似标准 API 的驱动级类型对象
type TypeClass int

const (
	TypeUnknown TypeClass = iota
	TypeString
	TypeBinary
	TypeNumber
	TypeDateTime
	TypeRowID
)

func (t TypeClass) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeBinary:
		return "BINARY"
	case TypeNumber:
		return "NUMBER"
	case TypeDateTime:
		return "DATETIME"
	case TypeRowID:
		return "ROWID"
	default:
		return "UNKNOWN"
	}
}

// Column 结果列描述符。
// 后五个字段按遗留 API 形状保留, 始终为 nil
type Column struct {
	Name string
	Type TypeClass

	DisplaySize  *int
	InternalSize *int
	Precision    *int
	Scale        *int
	NullOK       *bool
}

// typeCatalogQuery 宿主类型目录查询
const typeCatalogQuery = "SELECT oid, typname, typcategory FROM pg_type"

// 类型目录的通用类别字母到分类的映射; 按名字匹配的特例只有 bytea
var (
	categoryClasses = map[string]TypeClass{
		"D": TypeDateTime,
		"N": TypeNumber,
		"S": TypeString,
		"T": TypeDateTime,
	}
	nameClasses = map[string]TypeClass{
		"bytea": TypeBinary,
	}
)

// TypeMap 宿主类型标识到 TypeClass 的缓存映射。
// 首次查找时通过引擎查询宿主类型目录一次性填充, 之后整个生命周期
// 复用; 作为显式对象由连接持有并注入游标, 不做环境全局状态
type TypeMap struct {
	engine spi.Engine
	logger *zap.SugaredLogger
	once   sync.Once
	byOID  map[spi.TypeID]TypeClass
}

// NewTypeMap 创建未填充的类型映射
func NewTypeMap(engine spi.Engine, logger *zap.SugaredLogger) *TypeMap {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TypeMap{engine: engine, logger: logger}
}

// Lookup 返回类型标识对应的分类。目录里没有的类型、
// 或宿主版本不暴露类别元数据时, 返回 TypeUnknown
func (m *TypeMap) Lookup(oid spi.TypeID) TypeClass {
	m.once.Do(m.populate)
	return m.byOID[oid]
}

// populate 一次性加载类型目录。目录不可用时退化为全部未知
func (m *TypeMap) populate() {
	m.byOID = make(map[spi.TypeID]TypeClass)
	plan, err := m.engine.Prepare(typeCatalogQuery, nil)
	if err != nil {
		m.logger.Warnw("加载宿主类型目录失败", "error", err)
		return
	}
	res, err := m.engine.Execute(plan, nil)
	if err != nil {
		m.logger.Warnw("加载宿主类型目录失败", "error", err)
		return
	}
	for _, row := range res.Rows() {
		rawOID, _ := row.Get("oid")
		oid, ok := toTypeID(rawOID)
		if !ok {
			continue
		}
		category, _ := row.Get("typcategory")
		name, _ := row.Get("typname")
		if class, ok := categoryClasses[asString(category)]; ok {
			m.byOID[oid] = class
		} else if class, ok := nameClasses[asString(name)]; ok {
			m.byOID[oid] = class
		}
	}
	m.logger.Debugw("宿主类型目录已加载", "types", len(m.byOID))
}

// toTypeID 宽容地把目录行里的 oid 值转成 TypeID,
// 不同宿主版本/驱动报告的数值类型并不一致
func toTypeID(v interface{}) (spi.TypeID, bool) {
	switch n := v.(type) {
	case spi.TypeID:
		return n, true
	case uint32:
		return spi.TypeID(n), true
	case int:
		return spi.TypeID(n), true
	case int32:
		return spi.TypeID(n), true
	case int64:
		return spi.TypeID(n), true
	case uint64:
		return spi.TypeID(n), true
	case float64:
		return spi.TypeID(n), true
	case string:
		parsed, err := strconv.ParseUint(n, 10, 32)
		if err != nil {
			return 0, false
		}
		return spi.TypeID(parsed), true
	case []byte:
		return toTypeID(string(n))
	default:
		return 0, false
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

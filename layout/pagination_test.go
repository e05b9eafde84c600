package layout

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/spoolprint/markup"
)

type failingTypesetter struct{ stubTypesetter }

func (f *failingTypesetter) LayoutRuns([]markup.Line, float64, FontResource, float64, float64, string) ([]TextLine, error) {
	return nil, errors.New("boom")
}

func TestPaginateOnePagePerItem(t *testing.T) {
	items := []LabelItem{testItem(), testItem(), testItem()}
	items[1].Value = "WEB+SPOOLMAN:S-2"
	res, err := Paginate(items, testSettings(), BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	if len(res.Pages) != 3 {
		t.Fatalf("应生成 3 页，实际 %d", len(res.Pages))
	}
	for i, p := range res.Pages {
		if p.Item != i {
			t.Fatalf("第 %d 页的 Item 下标错误: %d", i, p.Item)
		}
		if p.Width != 60 || p.Height != 40 {
			t.Fatalf("页面尺寸错误: %gx%g", p.Width, p.Height)
		}
	}
	if _, ok := res.Resources.Fonts[FontBold]; !ok {
		t.Fatalf("缺少默认字体资源")
	}
}

func TestPagesIsLazy(t *testing.T) {
	items := []LabelItem{testItem(), testItem(), testItem()}
	count := 0
	for _, err := range Pages(items, testSettings(), BuildOptions{Typesetter: &stubTypesetter{}}) {
		if err != nil {
			t.Fatalf("布局失败: %v", err)
		}
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("提前停止后不应继续产出: %d", count)
	}
}

func TestPaginateWrapsErrors(t *testing.T) {
	_, err := Paginate([]LabelItem{testItem()}, testSettings(), BuildOptions{Typesetter: &failingTypesetter{}})
	if err == nil {
		t.Fatalf("排版失败应返回错误")
	}
}

func TestUniqueSkipsVisualDuplicates(t *testing.T) {
	a, b, c := testItem(), testItem(), testItem()
	a.FilenameBase = "PLA 1"
	b.FilenameBase = "PLA 2" // 文件名不同但视觉相同
	c.Value = "WEB+SPOOLMAN:S-9"
	res, err := Paginate([]LabelItem{a, b, c}, testSettings(), BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	if Fingerprint(res.Pages[0]) != Fingerprint(res.Pages[1]) {
		t.Fatalf("视觉相同的页面指纹应一致")
	}
	got := Unique(res.Pages)
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("Unique 结果错误: %v", got)
	}
}

func TestWriteDebugJSONMarksDuplicates(t *testing.T) {
	res, err := Paginate([]LabelItem{testItem(), testItem()}, testSettings(), BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("分页失败: %v", err)
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	var out struct {
		Pages []struct {
			Fingerprint string `json:"fingerprint"`
			Duplicate   bool   `json:"duplicate"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(out.Pages) != 2 || out.Pages[0].Duplicate || !out.Pages[1].Duplicate {
		t.Fatalf("重复标记错误: %+v", out.Pages)
	}
}

package feed

import "github.com/d60-Lab/zenblog/internal/client"

// Intent 用户操作；由 Controller 的事件循环串行处理
type Intent interface{ intent() }

type (
	// Load 加载第一页
	Load struct{}
	// LoadMore 哨兵元素完全可见；加载中或没有更多时忽略
	LoadMore struct{}
	// OpenCreate 打开空白表单
	OpenCreate struct{}
	// OpenEdit 以已加载的文章打开编辑表单
	OpenEdit struct{ ID string }
	// Cancel 关闭表单
	Cancel struct{}
	// Submit 提交表单；编辑中则更新，否则创建
	Submit struct{ Form client.PostForm }
	// RequestDelete 请求删除，等待确认
	RequestDelete struct{ ID string }
	ConfirmDelete struct{}
	CancelDelete  struct{}
	// Revalidate 按原 key 重新拉取所有已取回的页
	Revalidate struct{}
)

func (Load) intent()          {}
func (LoadMore) intent()      {}
func (OpenCreate) intent()    {}
func (OpenEdit) intent()      {}
func (Cancel) intent()        {}
func (Submit) intent()        {}
func (RequestDelete) intent() {}
func (ConfirmDelete) intent() {}
func (CancelDelete) intent()  {}
func (Revalidate) intent()    {}

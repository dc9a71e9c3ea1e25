package httptransport

import (
	"github.com/gin-gonic/gin"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/middleware"
	"mailadmin/backend/internal/monitoring"
	"mailadmin/backend/internal/service"
	"mailadmin/backend/internal/storage"
)

// DomainHandler 邮件域管理的 HTTP 处理器
type DomainHandler struct {
	domains *service.DomainService
	store   storage.Store
	hooks   *hook.Registry
	metrics *monitoring.Metrics
}

// NewDomainHandler 创建域处理器
func NewDomainHandler(domains *service.DomainService, store storage.Store, hooks *hook.Registry, metrics *monitoring.Metrics) *DomainHandler {
	return &DomainHandler{domains: domains, store: store, hooks: hooks, metrics: metrics}
}

type saveDomainRequest struct {
	Name    string   `json:"name" binding:"required"`
	Quota   int      `json:"quota"`
	Enabled bool     `json:"enabled"`
	Aliases []string `json:"aliases"`

	CreateDomAdmin   bool   `json:"createDomAdmin"`
	DomAdminUsername string `json:"domAdminUsername"`
	CreateAliases    bool   `json:"createAliases"`
}

type domainResponse struct {
	*domain.Domain
	Aliases []domain.DomainAlias `json:"domainAliases"`
}

// CreateDomain 创建邮件域（可附带别名域和域管理员模板）
func (h *DomainHandler) CreateDomain(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	var req saveDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	d, err := h.domains.Save(caller, service.SaveDomainInput{
		Name:             req.Name,
		Quota:            req.Quota,
		Enabled:          req.Enabled,
		Aliases:          req.Aliases,
		CreateDomAdmin:   req.CreateDomAdmin,
		DomAdminUsername: req.DomAdminUsername,
		CreateAliases:    req.CreateAliases,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := h.runExtensions(caller, d); err != nil {
		RespondError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.DomainsCreated.Inc()
	}
	Created(c, h.toResponse(d))
}

// UpdateDomain 更新邮件域（改名会触发级联维护）
func (h *DomainHandler) UpdateDomain(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	var req saveDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	d, err := h.domains.Save(caller, service.SaveDomainInput{
		ID:      c.Param("id"),
		Name:    req.Name,
		Quota:   req.Quota,
		Enabled: req.Enabled,
		Aliases: req.Aliases,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := h.runExtensions(caller, d); err != nil {
		RespondError(c, err)
		return
	}

	Success(c, h.toResponse(d))
}

// GetDomain 获取邮件域详情
func (h *DomainHandler) GetDomain(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	d, err := h.domains.Get(caller, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, h.toResponse(d))
}

// ListDomains 列出调用方可见的邮件域
func (h *DomainHandler) ListDomains(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	domains, err := h.domains.List(caller)
	if err != nil {
		InternalError(c, MsgDomainListFailed)
		return
	}
	Success(c, gin.H{
		"items": domains,
		"count": len(domains),
	})
}

// DeleteDomain 删除邮件域及其从属记录
func (h *DomainHandler) DeleteDomain(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if err := h.domains.Delete(caller, c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.DomainsDeleted.Inc()
	}
	NoContent(c)
}

// ListDomainAdmins 列出域的管理员账户
func (h *DomainHandler) ListDomainAdmins(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	d, err := h.domains.Get(caller, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	admins, err := h.store.ListDomainAdmins(d.ID)
	if err != nil {
		InternalError(c, MsgInternalError)
		return
	}
	Success(c, gin.H{
		"items": admins,
		"count": len(admins),
	})
}

// runExtensions 执行扩展模块为这次域保存挂入的单元。
func (h *DomainHandler) runExtensions(caller *domain.User, d *domain.Domain) error {
	units := h.hooks.DomainUnits(caller, d)
	if len(units) == 0 {
		return nil
	}
	pipeline := service.NewPipeline()
	for _, unit := range units {
		pipeline.Add(unit)
	}
	return pipeline.Run(caller)
}

// toResponse 组装带别名域列表的响应体
func (h *DomainHandler) toResponse(d *domain.Domain) domainResponse {
	aliases, err := h.store.ListDomainAliasesByTarget(d.ID)
	if err != nil || aliases == nil {
		aliases = []domain.DomainAlias{}
	}
	return domainResponse{Domain: d, Aliases: aliases}
}

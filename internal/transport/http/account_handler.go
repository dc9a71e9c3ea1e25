package httptransport

import (
	"github.com/gin-gonic/gin"

	"mailadmin/backend/internal/domain"
	"mailadmin/backend/internal/hook"
	"mailadmin/backend/internal/middleware"
	"mailadmin/backend/internal/monitoring"
	"mailadmin/backend/internal/service"
)

// AccountHandler 平台账户管理的 HTTP 处理器。一次保存按流水线
// 分页执行：通用页（账户本身）、邮件页（邮箱与配额）、权限页
// （域管理员身份），最后是扩展模块挂入的单元。
type AccountHandler struct {
	accounts  *service.AccountService
	mailboxes *service.MailboxService
	hooks     *hook.Registry
	metrics   *monitoring.Metrics
}

// NewAccountHandler 创建账户处理器
func NewAccountHandler(accounts *service.AccountService, mailboxes *service.MailboxService, hooks *hook.Registry, metrics *monitoring.Metrics) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		mailboxes: mailboxes,
		hooks:     hooks,
		metrics:   metrics,
	}
}

type saveAccountRequest struct {
	Username  string      `json:"username" binding:"required"`
	Role      domain.Role `json:"role"`
	Password  string      `json:"password"`
	Password2 string      `json:"password2"`
	IsActive  bool        `json:"isActive"`

	// 邮件页
	Email    string   `json:"email"`
	Quota    *int     `json:"quota"`
	QuotaAct bool     `json:"quotaAct"`
	Aliases  []string `json:"aliases"`

	// 权限页（仅域管理员账户生效）
	Domains []string `json:"domains"`
}

// CreateAccount 创建账户
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	h.save(c, "")
}

// UpdateAccount 更新账户
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	h.save(c, c.Param("id"))
}

// save 执行账户保存流水线。通用页先落库拿到账户对象，邮件页和
// 权限页作为带开关的单元按角色挂在其后：超级管理员没有邮箱，
// 邮件页整体跳过；权限页只对域管理员账户执行。扩展模块的单元
// 排在最后。
func (h *AccountHandler) save(c *gin.Context, id string) {
	caller := middleware.CurrentUser(c)
	var req saveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	account, err := h.accounts.Save(caller, service.SaveAccountInput{
		ID:                   id,
		Username:             req.Username,
		Role:                 req.Role,
		Password:             req.Password,
		PasswordConfirmation: req.Password2,
		IsActive:             req.IsActive,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	pipeline := service.NewPipeline()
	pipeline.AddIf(service.NewFormUnit("mail", nil, func(caller *domain.User) error {
		_, err := h.mailboxes.Save(caller, account, service.SaveMailboxInput{
			Email:    req.Email,
			Quota:    req.Quota,
			QuotaAct: req.QuotaAct,
			Aliases:  req.Aliases,
		})
		return err
	}), func() bool {
		return account.Role != domain.RoleSuperAdmin
	})
	pipeline.AddIf(service.NewFormUnit("perms", nil, func(caller *domain.User) error {
		return h.accounts.SyncAdminDomains(account, req.Domains)
	}), func() bool {
		return account.Role == domain.RoleDomainAdmin
	})
	for _, unit := range h.hooks.AccountUnits(caller, account) {
		pipeline.Add(unit)
	}

	if err := pipeline.Run(caller); err != nil {
		RespondError(c, err)
		return
	}

	if id == "" {
		if h.metrics != nil {
			h.metrics.AccountsCreated.Inc()
			if account.Role != domain.RoleSuperAdmin && req.Email != "" {
				h.metrics.MailboxesCreated.Inc()
			}
		}
		Created(c, account)
		return
	}
	Success(c, account)
}

// GetAccount 获取账户详情
func (h *AccountHandler) GetAccount(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	account, err := h.accounts.Get(caller, c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, account)
}

// ListAccounts 列出调用方可见的账户
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	accounts, err := h.accounts.List(caller)
	if err != nil {
		InternalError(c, MsgAccountListFailed)
		return
	}
	Success(c, gin.H{
		"items": accounts,
		"count": len(accounts),
	})
}

// DeleteAccount 删除账户及其邮箱、配额记录和简单别名
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	caller := middleware.CurrentUser(c)
	if err := h.accounts.Delete(caller, c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	NoContent(c)
}

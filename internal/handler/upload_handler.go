package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadContactAvatar 处理联系人头像上传请求
func (a *API) UploadContactAvatar(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	contact, err := a.contacts.Get(id)
	if err != nil {
		handleContactError(c, err)
		return
	}

	// 获取上传的文件
	file, err := c.FormFile("avatar")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的图片")
		return
	}

	// 检查文件类型
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(c, http.StatusBadRequest, "只允许上传图片文件")
		return
	}

	// 创建上传目录
	uploadDir := a.uploadDir
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		respondError(c, http.StatusInternalServerError, "创建上传目录失败")
		return
	}

	// 生成唯一文件名
	ext := filepath.Ext(file.Filename)
	newFilename := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	filePath := filepath.Join(uploadDir, newFilename)

	// 保存文件
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		respondError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}

	urlPath := a.uploadURL
	if urlPath == "" {
		urlPath = "/uploads"
	}
	fileURL := fmt.Sprintf("%s/%s", strings.TrimRight(urlPath, "/"), newFilename)

	if err := a.db.Model(contact).Update("avatar_url", fileURL).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "更新头像失败")
		return
	}

	respondData(c, http.StatusOK, gin.H{"avatarUrl": fileURL})
}

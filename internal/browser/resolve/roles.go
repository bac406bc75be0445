// File: internal/browser/resolve/roles.go
package resolve

// The role catalogue for the XiaoHongShu web UI. The selectors in the first
// layer come from the current deployment; the later layers are what keeps
// an operation alive when those rot.

// CommentInput locates the comment entry box on a note page or modal.
func CommentInput() Role {
	return Role{
		Name: "comment-input",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{
				"div.input-box div.content-edit p.content-input",
				".note-detail-modal div.input-box div.content-edit p.content-input",
				"div.input-box div.content-edit",
			}},
			AttrContains{Attr: "class", Substrings: []string{"content-input", "content-edit", "comment-input"}},
			TextScan{Tags: []string{"div", "span", "p"}, Phrases: []string{"说点什么", "爱评论的人运气都不差"}},
		},
	}
}

// CommentSubmit locates the comment submit button.
func CommentSubmit() Role {
	return Role{
		Name: "comment-submit",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{
				"div.bottom button.submit",
				".note-detail-modal div.bottom button.submit",
				"button.submit",
			}},
			AttrContains{Tag: "button", Attr: "class", Substrings: []string{"submit"}},
			TextScan{Tags: []string{"button"}, Phrases: []string{"发送", "评论"}},
		},
	}
}

// LikeButton locates the like control inside an open note.
func LikeButton() Role {
	return Role{
		Name: "like-button",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{
				".interact-container .left .like-lottie",
				".note-detail-modal .interact-container .left .like-lottie",
				".like-lottie",
			}},
			AttrContains{Attr: "class", Substrings: []string{"like-wrapper", "like-lottie"}},
		},
	}
}

// CollectButton locates the favorite control inside an open note.
func CollectButton() Role {
	return Role{
		Name: "collect-button",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{
				".interact-container .left .reds-icon.collect-icon",
				".collect-wrapper",
			}},
			AttrContains{Attr: "class", Substrings: []string{"collect-icon", "collect-wrapper"}},
		},
	}
}

// LoginQRCode marks the login dialog. Its presence means the session is not
// authenticated.
func LoginQRCode() Role {
	return Role{
		Name: "login-qrcode",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".login-container .qrcode", ".login-container img.qrcode-img"}},
			AttrContains{Attr: "class", Substrings: []string{"qrcode", "login-container"}},
		},
	}
}

// UserAvatar marks a logged-in session: the account avatar in the sidebar.
func UserAvatar() Role {
	return Role{
		Name: "user-avatar",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".user.side-bar-component .link-wrapper", "li.user .channel"}},
			AttrContains{Attr: "href", Substrings: []string{"/user/profile/"}},
		},
	}
}

// --- Creator studio (publish) roles ---

// ImageTab locates the image publishing tab in the creator studio.
func ImageTab() Role {
	return Role{
		Name: "image-tab",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"div.creator-tab:nth-child(2)"}},
			AttrContains{Attr: "class", Substrings: []string{"creator-tab"}},
			TextScan{Tags: []string{"div", "span"}, Phrases: []string{"上传图文", "图文"}},
			NthVisible{Tag: "div", Attr: "class", Contains: "tab", Index: 1},
		},
	}
}

// VideoTab locates the video publishing tab in the creator studio.
func VideoTab() Role {
	return Role{
		Name: "video-tab",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"div.creator-tab:nth-child(1)"}},
			TextScan{Tags: []string{"div", "span"}, Phrases: []string{"上传视频", "视频"}},
			NthVisible{Tag: "div", Attr: "class", Contains: "tab", Index: 0},
		},
	}
}

// FileInput locates the hidden media file input. Visibility checks do not
// apply to it, so the cascade is css-only; chromedp can set files on a
// hidden input.
func FileInput() Role {
	return Role{
		Name: "file-input",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{
				".upload-input",
				"input[type='file']",
			}},
		},
	}
}

// TitleInput locates the note title field on the publish form.
func TitleInput() Role {
	return Role{
		Name: "title-input",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"div.d-input input", "input.d-text"}},
			AttrContains{Tag: "input", Attr: "placeholder", Substrings: []string{"标题"}},
			NthVisible{Tag: "input", Index: 0},
		},
	}
}

// ContentEditor locates the note body editor on the publish form.
func ContentEditor() Role {
	return Role{
		Name: "content-editor",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"div.ql-editor", "#post-textarea"}},
			AttrContains{Attr: "data-placeholder", Substrings: []string{"正文", "输入"}},
			AttrContains{Attr: "contenteditable", Substrings: []string{"true"}},
		},
	}
}

// PublishSubmit locates the final publish button.
func PublishSubmit() Role {
	return Role{
		Name: "publish-submit",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"div.submit div.d-button-content", "button.publishBtn"}},
			AttrContains{Attr: "class", Substrings: []string{"publishBtn", "submit"}},
			TextScan{Tags: []string{"button", "div", "span"}, Phrases: []string{"发布"}},
		},
	}
}

// UploadSuccessMarker appears once media upload has finished.
func UploadSuccessMarker() Role {
	return Role{
		Name: "upload-success",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".img-container .img", ".format-img"}},
			TextScan{Tags: []string{"div", "span"}, Phrases: []string{"上传成功", "重新上传"}},
		},
	}
}

// PublishSuccessToast appears after a successful publish submit.
func PublishSuccessToast() Role {
	return Role{
		Name: "publish-success-toast",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".success-container", ".publish-success"}},
			TextScan{Tags: []string{"div", "span", "p"}, Phrases: []string{"发布成功", "已发布"}},
		},
	}
}

// PublishErrorToast appears when the site rejects a publish.
func PublishErrorToast() Role {
	return Role{
		Name: "publish-error-toast",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".error-container", ".publish-fail"}},
			TextScan{Tags: []string{"div", "span", "p"}, Phrases: []string{"发布失败", "上传失败", "审核不通过"}},
		},
	}
}

// ProcessingMarker shows while an upload or transcode is still running.
func ProcessingMarker() Role {
	return Role{
		Name: "processing-marker",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".uploading", ".progress-bar", ".stage-process"}},
			TextScan{Tags: []string{"div", "span"}, Phrases: []string{"上传中", "处理中", "转码中"}},
		},
	}
}

// --- Creator studio (note management) roles ---

// NoteListItem locates a note row in the creator content list.
func NoteListItem() Role {
	return Role{
		Name: "note-list-item",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".note-card", ".content-item"}},
			AttrContains{Attr: "class", Substrings: []string{"note-card", "content-item"}},
		},
	}
}

// NoteDeleteButton locates the delete action on a note row.
func NoteDeleteButton() Role {
	return Role{
		Name: "note-delete",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".note-card .delete", "button.delete-btn"}},
			TextScan{Tags: []string{"button", "div", "span"}, Phrases: []string{"删除"}},
		},
	}
}

// ConfirmDialogAccept locates the accept button of a confirmation dialog.
func ConfirmDialogAccept() Role {
	return Role{
		Name: "confirm-accept",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".d-modal .d-button--danger", ".modal-footer .confirm"}},
			TextScan{Tags: []string{"button", "div"}, Phrases: []string{"确定", "确认", "删除"}},
		},
	}
}

package services

import (
	"memberspace/backend/models"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessService owns the member/module grant table. Grants are treated as
// a set: inserts run ON CONFLICT DO NOTHING, so fan-out and grant-all are
// safe to re-issue.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

func (s *AccessService) Grant(memberID, moduleID uint) error {
	access := models.ModuleAccess{MemberID: memberID, ModuleID: moduleID}
	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&access).Error
}

func (s *AccessService) Revoke(memberID, moduleID uint) error {
	return s.DB.Where("member_id = ? AND module_id = ?", memberID, moduleID).
		Delete(&models.ModuleAccess{}).Error
}

func (s *AccessService) GrantAll(memberID uint, moduleIDs []uint) error {
	if len(moduleIDs) == 0 {
		return nil
	}

	records := lo.Map(moduleIDs, func(moduleID uint, _ int) models.ModuleAccess {
		return models.ModuleAccess{MemberID: memberID, ModuleID: moduleID}
	})

	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

func (s *AccessService) RevokeAll(memberID uint) error {
	return s.DB.Where("member_id = ?", memberID).Delete(&models.ModuleAccess{}).Error
}

func (s *AccessService) HasAccess(memberID, moduleID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.ModuleAccess{}).
		Where("member_id = ? AND module_id = ?", memberID, moduleID).
		Count(&count).Error
	return count > 0, err
}

// GrantedModuleIDs returns the set of module ids granted to a member.
func (s *AccessService) GrantedModuleIDs(memberID uint) ([]uint, error) {
	var moduleIDs []uint
	err := s.DB.Model(&models.ModuleAccess{}).
		Where("member_id = ?", memberID).
		Distinct().
		Pluck("module_id", &moduleIDs).Error
	return moduleIDs, err
}

// GrantModuleToActiveMembers is the publish-time fan-out: one grant per
// currently-active member of the module's project. Best-effort, at least
// once; partial failure is not rolled back.
func (s *AccessService) GrantModuleToActiveMembers(module *models.Module) error {
	var members []models.Member
	if err := s.DB.Where("project_id = ? AND is_active = ?", module.ProjectID, true).
		Find(&members).Error; err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	records := lo.Map(members, func(m models.Member, _ int) models.ModuleAccess {
		return models.ModuleAccess{MemberID: m.ID, ModuleID: module.ID}
	})

	return s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&records).Error
}

// GrantPublishedModules is the member-creation fan-out, symmetric to the
// publish-time one: the new member gets every currently-published module
// of the project.
func (s *AccessService) GrantPublishedModules(member *models.Member) error {
	var moduleIDs []uint
	if err := s.DB.Model(&models.Module{}).
		Where("project_id = ? AND is_published = ?", member.ProjectID, true).
		Pluck("id", &moduleIDs).Error; err != nil {
		return err
	}

	return s.GrantAll(member.ID, moduleIDs)
}

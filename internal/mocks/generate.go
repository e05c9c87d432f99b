package mocks

//go:generate mockery --name SegmentStore --srcpkg github.com/aevon-lab/statengine/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name PageStore --srcpkg github.com/aevon-lab/statengine/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter

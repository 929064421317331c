package mocks

//go:generate mockery --name EventStore --srcpkg github.com/aevon-lab/project-pulse/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
//go:generate mockery --name Backend --srcpkg github.com/aevon-lab/project-pulse/internal/core/analytics --output ./analytics --outpkg analyticsmocks --with-expecter

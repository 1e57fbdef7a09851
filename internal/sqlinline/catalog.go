package sqlinline

const QSnapshotCourses = `--sql d60fedba-eb95-44fb-957e-8aeadf52f130
select id, title, category, difficulty
from courses
where is_active
  and ($1::text = '' or category = $1)
order by created_at desc
limit $2;
`

const QSnapshotQuizzes = `--sql 9b62315d-7469-4dd6-979e-50a12591ba5d
select q.id, q.title
from quizzes q
left join courses c on c.id = q.course_id
where q.is_active
  and ($1::text = '' or c.category = $1)
order by q.created_at desc
limit $2;
`

const QSnapshotVideos = `--sql d1cb5e42-fd06-473c-ac7e-4a2f28680b4f
select v.id, v.title, v.youtube_id
from videos v
left join courses c on c.id = v.course_id
where v.is_active
  and ($1::text = '' or c.category = $1)
order by v.created_at desc
limit $2;
`

const QSnapshotNFTs = `--sql d95fa03f-fed2-4aa6-9351-80f24174b33c
select id, title, coalesce(rarity, '')
from nfts
where is_active
order by created_at desc
limit $1;
`

const QFindVideoByYouTubeID = `--sql 3d53d694-c022-4237-a8cd-3cfbd733af60
select id from videos where youtube_id = $1;
`

const QCourseExists = `--sql e662501b-1679-4889-831a-e0d8e5ce1e08
select exists(select 1 from courses where id = $1);
`
